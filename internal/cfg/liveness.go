package cfg

import "github.com/danielecattaneo/acse-multitarget/internal/ir"

// Options tunes dataflow behaviors that the original implementation gates
// behind a compile-time constant (spec.md §4.4; SPEC_FULL.md §C.1).
type Options struct {
	// KeepZeroRegLive forces the zero register live-in at every node.
	// Default on, matching the original.
	KeepZeroRegLive bool
}

func DefaultOptions() Options { return Options{KeepZeroRegLive: true} }

// ComputeLiveness runs the iterative backward fixed-point dataflow of
// spec.md §4.4, populating In/Out on every InstrNode.
func ComputeLiveness(g *Graph, opts Options) {
	nodes := g.AllNodes()
	changed := true
	for changed {
		changed = false
		// Iterate in reverse program order: backward analyses converge
		// fastest this way, though any order is correct.
		for i := len(nodes) - 1; i >= 0; i-- {
			n := nodes[i]
			out := successorsIn(g, n)
			if opts.KeepZeroRegLive {
				out.Add(VarID(ir.ZeroRegID))
			}
			if !n.Out.Equal(out) {
				n.Out = out
				changed = true
			}

			in := n.Out.Clone()
			for _, d := range n.Defs {
				if !containsVarID(n.Uses, d) {
					delete(in, d)
				}
			}
			for _, u := range n.Uses {
				in.Add(u)
			}
			if opts.KeepZeroRegLive {
				in.Add(VarID(ir.ZeroRegID))
			}
			if !n.In.Equal(in) {
				n.In = in
				changed = true
			}
		}
	}
}

// successorsIn returns the union of In over n's successors: the next node
// in its block, or the block-level successors' first nodes if n is last.
func successorsIn(g *Graph, n *InstrNode) VarSet {
	b := n.Block
	idx := indexOf(b, n)
	out := VarSet{}
	if idx+1 < len(b.Nodes) {
		out.UnionInto(b.Nodes[idx+1].In)
		return out
	}
	for _, s := range b.Succs {
		if len(s.Nodes) == 0 {
			continue // virtual end block contributes nothing
		}
		out.UnionInto(s.Nodes[0].In)
	}
	return out
}

func indexOf(b *Block, n *InstrNode) int {
	for i, x := range b.Nodes {
		if x == n {
			return i
		}
	}
	return -1
}

func containsVarID(s []VarID, v VarID) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
