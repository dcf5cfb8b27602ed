package main

// See doc.go for documentation.
import (
	"bufio"
	"flag"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/bio/ancestor"
	"github.com/grailbio/bio/match"
	"github.com/grailbio/bio/treeseq"
	"github.com/grailbio/bio/tsmodel"
)

var (
	genotypesPath    = flag.String("genotypes", "", "path to a whitespace-separated genotype matrix, one row per site")
	recombRate       = flag.Float64("recomb-rate", 1e-4, "per-site recombination probability used when matching")
	mismatchRate     = flag.Float64("mismatch-rate", 1e-3, "mismatch (observation error) rate used when matching")
	resolveSharedRec = flag.Bool("resolve-shared-recombinations", true, "collapse shared recombination breakpoints across paths")
)

// readMatrix parses one genotype row per line, whitespace-separated
// -1/0/1 entries, into a [site][sample] allele matrix.
func readMatrix(path string) ([][]tsmodel.Allele, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]tsmodel.Allele
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		row := make([]tsmodel.Allele, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, err
			}
			row[i] = tsmodel.Allele(v)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func countDerived(col []tsmodel.Allele) int {
	n := 0
	for _, a := range col {
		if a == tsmodel.AlleleDerived {
			n++
		}
	}
	return n
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *genotypesPath == "" {
		log.Fatal("-genotypes is required")
	}
	rows, err := readMatrix(*genotypesPath)
	if err != nil {
		log.Fatalf("reading %s: %v", *genotypesPath, err)
	}
	if len(rows) == 0 {
		log.Fatal("genotype matrix is empty")
	}
	numSites := len(rows)
	numSamples := len(rows[0])

	ab := ancestor.NewBuilder(numSamples, ancestor.BuilderOptions{DropoutTolerance: 1})
	for s, row := range rows {
		if err := ab.AddSite(tsmodel.Site(s), countDerived(row), row); err != nil {
			log.Fatalf("add_site(%d): %v", s, err)
		}
	}

	tb := treeseq.NewBuilder(treeseq.BuilderOptions{
		NumSites:             tsmodel.Site(numSites),
		ResolveSharedRecombs: *resolveSharedRec,
	})

	// Ancestors are added oldest (highest frequency) group first, time
	// decreasing, matching tsinfer's reference epoch order.
	order := make([]int, ab.NumAncestors())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return countDerived(rows[ab.FocalSites(order[x])[0]]) > countDerived(rows[ab.FocalSites(order[y])[0]])
	})
	epochTime := tsmodel.Time(numSamples + ab.NumAncestors() + 1)
	for _, i := range order {
		anc, err := ab.MakeAncestor(ab.FocalSites(i))
		if err != nil {
			log.Error.Printf("make_ancestor(group %d): %v", i, err)
			continue
		}
		node := tb.AddNode(epochTime, false)
		epochTime--
		if err := tb.AddPath(node, []treeseq.PathEdge{{Left: anc.Start, Right: anc.End, Parent: tsmodel.VirtualRoot}}); err != nil {
			log.Error.Printf("add_path(ancestor %d): %v", i, err)
			continue
		}
		recordMutations(tb, node, anc)
	}

	recombRates := make([]float64, numSites)
	for i := range recombRates {
		recombRates[i] = *recombRate
	}
	params := match.Params{RecombRate: recombRates, MismatchRate: *mismatchRate}

	totalMismatches := 0
	for sample := 0; sample < numSamples; sample++ {
		hap := make([]tsmodel.Allele, numSites)
		for s := range rows {
			hap[s] = rows[s][sample]
		}
		m := match.NewMatcher(tb.Snapshot(), params)
		res, err := m.FindPath(0, tsmodel.Site(numSites), hap)
		if err != nil {
			log.Error.Printf("find_path(sample %d): %v", sample, err)
			continue
		}
		totalMismatches += len(res.Mismatches)

		node := tb.AddNode(0, true)
		edges := make([]treeseq.PathEdge, len(res.Edges))
		for i, e := range res.Edges {
			edges[i] = treeseq.PathEdge{Left: e.Left, Right: e.Right, Parent: e.Parent}
		}
		if err := tb.AddPath(node, edges); err != nil {
			log.Error.Printf("add_path(sample %d): %v", sample, err)
		}
	}

	log.Printf("tsinfer-bench: %d sites, %d samples, %d ancestors covering %d/%d sites, %d nodes, %d edges, %d recombinations, %d total mismatches",
		numSites, numSamples, ab.NumAncestors(), ab.TotalCoveredSites(), numSites, tb.NumNodes(), tb.NumEdges(), tb.NumRecombinations(), totalMismatches)
}

// recordMutations adds one mutation per derived site in anc,
// relative to the default ancestral state.
func recordMutations(tb *treeseq.Builder, node tsmodel.NodeID, anc ancestor.Ancestor) {
	var sites []tsmodel.Site
	var derived []tsmodel.Allele
	for i, a := range anc.Haplotype {
		if a != tsmodel.AlleleDerived {
			continue
		}
		sites = append(sites, anc.Start+tsmodel.Site(i))
		derived = append(derived, a)
	}
	if len(sites) == 0 {
		return
	}
	if err := tb.AddMutations(node, sites, derived); err != nil {
		log.Error.Printf("add_mutations(node %d): %v", node, err)
	}
}
