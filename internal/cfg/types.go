// Package cfg builds the control-flow graph over an ir.Program, and runs
// the two dataflow analyses the rest of the pipeline needs: liveness and
// reaching definitions (spec.md §3 "CFG entities", §4.3, §4.4).
package cfg

import (
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
)

// VarID names a cfg-var: either a real register id (>=0) or the reserved
// flags-register sentinel Psw (spec.md §3).
type VarID int

// Psw is the pseudo-variable carrying condition-flag state, handled by the
// dataflow framework like any other variable (spec.md §9 Design Notes).
const Psw VarID = -1

// Var is a cfg-var: dense id, inferred type (meaningless for Psw), and the
// intersection of every machine-register whitelist observed at its
// definitions/uses (spec.md §3).
type Var struct {
	ID        VarID
	Type      ir.RegType
	Whitelist []int
}

// VarSet is a small set of VarIDs used for live-in/live-out and def/use.
type VarSet map[VarID]struct{}

func NewVarSet(vs ...VarID) VarSet {
	s := make(VarSet, len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

func (s VarSet) Has(v VarID) bool { _, ok := s[v]; return ok }
func (s VarSet) Add(v VarID)      { s[v] = struct{}{} }
func (s VarSet) Clone() VarSet {
	c := make(VarSet, len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}

// UnionInto adds every member of other into s, returning whether s changed.
func (s VarSet) UnionInto(other VarSet) bool {
	changed := false
	for v := range other {
		if !s.Has(v) {
			s[v] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (s VarSet) Equal(o VarSet) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if !o.Has(v) {
			return false
		}
	}
	return true
}

func (s VarSet) Slice() []VarID {
	out := make([]VarID, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// InstrNode wraps one ir.Instruction with its def/use sets and live sets
// (spec.md §3 "Instruction node").
type InstrNode struct {
	Instr *ir.Instruction
	Defs  []VarID // at most 2 (the real def plus psw)
	Uses  []VarID // at most 3 (rs1, rs2, psw)
	In    VarSet
	Out   VarSet
	Block *Block
	Pos   int // linear position, assigned by AssignPositions (used by regalloc)
}

// Block is a basic block: an ordered instruction-node list plus
// predecessor/successor block sets (spec.md §3).
type Block struct {
	ID    int
	Nodes []*InstrNode
	Preds []*Block
	Succs []*Block
}

// Graph is the CFG: a start block, a virtual end block, every block, and
// every cfg-var observed (spec.md §3).
type Graph struct {
	Start *Block
	End   *Block // virtual: no nodes of its own
	Blocks []*Block
	Vars  map[VarID]*Var
}

func (g *Graph) Var(id VarID) *Var {
	v, ok := g.Vars[id]
	if !ok {
		v = &Var{ID: id, Type: ir.TypeInferred}
		g.Vars[id] = v
	}
	return v
}

// AllNodes returns every instruction node across all blocks, in block then
// intra-block order.
func (g *Graph) AllNodes() []*InstrNode {
	var out []*InstrNode
	for _, b := range g.Blocks {
		out = append(out, b.Nodes...)
	}
	return out
}

// AssignPositions numbers every instruction node in traversal order
// (spec.md §4.6 "a linear numbering of instruction nodes"), required before
// building live intervals.
func (g *Graph) AssignPositions() {
	pos := 0
	for _, b := range g.Blocks {
		for _, n := range b.Nodes {
			n.Pos = pos
			pos++
		}
	}
}
