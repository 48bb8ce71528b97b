package cfg

// reachKey memoizes reaching-definition search per (block, variable): the
// Open Question in spec.md §9 notes the original only memoizes "visited
// blocks", making the search quadratic in the worst case; memoizing per
// variable too (as here) does not change observable behavior and avoids
// the blowup.
type reachKey struct {
	block int
	v     VarID
}

// ReachingDefs returns every instruction node that defines v and reaches
// n: a backward search from n (starting at the instruction immediately
// before it) across predecessor blocks, stopping along any path as soon as
// a definition of v is found (spec.md §4.3 "Reaching-definitions").
func ReachingDefs(n *InstrNode, v VarID) []*InstrNode {
	memo := map[reachKey][]*InstrNode{}
	visiting := map[int]bool{}
	idx := indexOf(n.Block, n)
	return reachingDefsInBlock(n.Block, idx, v, memo, visiting)
}

func reachingDefsInBlock(b *Block, before int, v VarID, memo map[reachKey][]*InstrNode, visiting map[int]bool) []*InstrNode {
	for i := before - 1; i >= 0; i-- {
		if containsVarID(b.Nodes[i].Defs, v) {
			return []*InstrNode{b.Nodes[i]}
		}
	}

	key := reachKey{b.ID, v}
	if r, ok := memo[key]; ok {
		return r
	}
	if visiting[b.ID] {
		return nil // cycle: this path contributes nothing new
	}
	visiting[b.ID] = true

	var out []*InstrNode
	seen := map[*InstrNode]bool{}
	for _, pred := range b.Preds {
		for _, d := range reachingDefsInBlock(pred, len(pred.Nodes), v, memo, visiting) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}

	delete(visiting, b.ID)
	memo[key] = out
	return out
}
