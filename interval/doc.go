/*Package interval implements interval-union operations over sets of
  site positions.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately; it is currently necessary to use another package when that is not
  the desired behavior.)
  It assumes every position fits in a PosType, which is currently defined as
  int32, matching the site-id width used throughout the tree sequence model.
*/
package interval
