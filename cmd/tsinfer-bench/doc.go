/*Command tsinfer-bench reads a whitespace-separated genotype matrix
  (one row per site, one column per sample, 0/1/-1 entries) from a
  file, builds ancestors and a tree sequence from it, matches every
  sample's haplotype back through the result, and writes a one-line
  summary through the log package.

  Usage: tsinfer-bench -genotypes matrix.txt

  This is a manual-testing driver only: it implements no production
  file format and is not part of the tested core.
*/
package main
