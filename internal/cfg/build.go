package cfg

import (
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
	"github.com/danielecattaneo/acse-multitarget/internal/traceapi"
)

// Build partitions p's instruction stream into basic blocks, wires up
// predecessor/successor edges, and resolves every branch target
// (spec.md §4.3). `load` instructions with no destination register are
// frontend scaffolding and are skipped, per spec.
func Build(p *ir.Program) (*Graph, error) {
	all := p.Instructions()

	g := &Graph{Vars: map[VarID]*Var{}}
	g.End = &Block{ID: -1}

	var blocks []*Block
	var cur *Block
	startNew := true
	labelToBlock := map[int]*Block{}

	newBlock := func() *Block {
		b := &Block{ID: len(blocks)}
		blocks = append(blocks, b)
		return b
	}

	for _, in := range all {
		if in.Op == ir.OpLoad && !in.HasRd {
			continue // scaffolding load, not a CFG node (§4.3)
		}
		if in.HasLabel() || startNew || cur == nil {
			cur = newBlock()
		}
		if in.HasLabel() {
			labelToBlock[p.Labels.ID(in.Label)] = cur
		}
		defs, uses := computeDefUse(in)
		node := &InstrNode{Instr: in, Defs: defs, Uses: uses, Block: cur, In: VarSet{}, Out: VarSet{}}
		cur.Nodes = append(cur.Nodes, node)
		startNew = in.Op.IsBlockEnding()
	}

	if len(blocks) == 0 {
		blocks = append(blocks, newBlock())
	}
	g.Blocks = blocks
	g.Start = blocks[0]

	resolve := func(addr *ir.Address) (*Block, error) {
		if addr == nil || !addr.IsLabel {
			return nil, lerr.New(lerr.InvalidLabel, "branch target is not label-typed")
		}
		id := p.Labels.ID(addr.Label)
		b, ok := labelToBlock[id]
		if !ok {
			return nil, lerr.New(lerr.InvalidLabel, "unresolved branch target")
		}
		return b, nil
	}

	link := func(a, b *Block) {
		a.Succs = append(a.Succs, b)
		b.Preds = append(b.Preds, a)
	}

	for i, b := range blocks {
		if len(b.Nodes) == 0 {
			continue
		}
		last := b.Nodes[len(b.Nodes)-1].Instr
		fallthroughBlock := g.End
		if i+1 < len(blocks) {
			fallthroughBlock = blocks[i+1]
		}

		switch {
		case last.Op == ir.OpHalt || last.Op == ir.OpRet:
			link(b, g.End)
		case last.Op.Category() == ir.CatBranchConditional:
			tgt, err := resolve(last.Addr)
			if err != nil {
				return nil, err
			}
			link(b, tgt)
			link(b, fallthroughBlock)
		case last.Op.Category() == ir.CatBranchUnconditional:
			tgt, err := resolve(last.Addr)
			if err != nil {
				return nil, err
			}
			link(b, tgt)
		default:
			// Non-branch ending (ret/halt handled above, jsr falls here), or a
			// block cut short because the next instruction carries a label,
			// or the program's last instruction -> next block (or End).
			link(b, fallthroughBlock)
		}
	}

	inferTypes(g, g.AllNodes())
	collectWhitelists(g)
	g.AssignPositions()
	traceapi.Printf("cfg: %d blocks, %d vars\n", len(g.Blocks), len(g.Vars))
	return g, nil
}

// collectWhitelists computes each cfg-var's whitelist as the intersection
// of every machine-register whitelist observed at its definitions/uses
// (spec.md §3).
func collectWhitelists(g *Graph) {
	first := map[VarID]bool{}
	observe := func(id VarID, wl []int) {
		v := g.Var(id)
		if !first[id] {
			v.Whitelist = append([]int(nil), wl...)
			first[id] = true
			return
		}
		v.Whitelist = ir.IntersectWhitelist(v.Whitelist, wl)
	}
	for _, n := range g.AllNodes() {
		in := n.Instr
		if in.HasRd {
			observe(VarID(in.Rd.ID), in.Rd.MCWhitelist)
		}
		if in.HasRs1 {
			observe(VarID(in.Rs1.ID), in.Rs1.MCWhitelist)
		}
		if in.HasRs2 {
			observe(VarID(in.Rs2.ID), in.Rs2.MCWhitelist)
		}
	}
}
