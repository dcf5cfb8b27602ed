package treeseq

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/bio/tsmodel"
)

// recombPattern hashes a child's candidate edge sequence (parent,
// left, right triples, in left-to-right order) into a 64-bit bucket
// key. Two children recombining at exactly the same breakpoints with
// exactly the same flanking parents hash identically; this is only the
// probe key add_path uses to find candidate buckets — ancestor.Builder's
// pattern grouping (see ancestor/frequency_map.go) then falls back to
// an exact byte comparison before trusting a hash match, and
// insertPathResolving does the equivalent here with edgesEqual, since
// a farmhash collision between two distinct breakpoint patterns must
// never collapse unrelated children onto one synthesized node.
func recombPattern(edges []PathEdge) uint64 {
	buf := make([]byte, 0, len(edges)*16)
	var tmp [8]byte
	for _, e := range edges {
		binary.LittleEndian.PutUint32(tmp[0:4], uint32(e.Parent))
		binary.LittleEndian.PutUint32(tmp[4:8], uint32(e.Left))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint32(tmp[0:4], uint32(e.Right))
		buf = append(buf, tmp[:4]...)
	}
	return farm.Hash64(buf)
}

// edgesEqual reports whether a and b describe the same (parent, left,
// right) sequence, the exact-match fallback recombPattern's doc
// comment promises after a hash probe.
func edgesEqual(a, b []PathEdge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sharedRecomb tracks, per recombination pattern bucket, the canonical
// edge sequence that hashed into it (for exact verification on the
// next probe) plus either the single uncollapsed child currently
// holding that pattern or the synthesized node it has already been
// collapsed onto.
type sharedRecomb struct {
	edges       []PathEdge
	single      tsmodel.NodeID
	collapsedTo tsmodel.NodeID
}
