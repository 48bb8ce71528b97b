package regalloc

import (
	"fmt"

	"github.com/danielecattaneo/acse-multitarget/internal/cfg"
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
)

// Materialize implements spec.md §4.7: for every spilled cfg-var it
// reserves a backing memory word, then walks every instruction referencing
// a spilled variable and inserts loads before each spilled use and stores
// after each spilled def, rewriting the operands to scratch registers. It
// finishes by substituting every remaining virtual register id in the
// program with its allocated machine register.
func Materialize(p *ir.Program, g *cfg.Graph, result *Result, scratch []int) error {
	varToMachineReg := map[cfg.VarID]int{}
	spilledLabel := map[cfg.VarID]ir.LabelID{}
	for _, iv := range result.Intervals {
		if iv.Spilled() {
			l := p.ReserveLabel()
			p.SetLabelName(l, fmt.Sprintf("spill_%d", int(iv.Var)))
			p.Data = append(p.Data, ir.DataDirective{Label: l, Value: 0})
			spilledLabel[iv.Var] = l
		} else {
			varToMachineReg[iv.Var] = iv.Assigned
		}
	}

	for _, n := range g.AllNodes() {
		in := n.Instr
		scratchIdx := 0
		nextScratch := func() int {
			s := scratch[scratchIdx%len(scratch)]
			scratchIdx++
			return s
		}

		var firstLoad *ir.Instruction
		spilledUses := map[cfg.VarID]int{}
		for _, u := range n.Uses {
			if u == cfg.Psw || u == cfg.VarID(ir.ZeroRegID) {
				continue
			}
			lbl, ok := spilledLabel[u]
			if !ok {
				continue
			}
			if _, done := spilledUses[u]; done {
				continue
			}
			s := nextScratch()
			spilledUses[u] = s
			addr := ir.LabelAddr(lbl)
			ld := p.InsertInstrBefore(in, ir.OpLoad, ir.InstrSpec{Rd: ir.R(s), HasRd: true, Addr: &addr})
			if firstLoad == nil {
				firstLoad = ld
			}
		}

		defScratch := map[cfg.VarID]int{}
		for _, d := range n.Defs {
			if d == cfg.Psw || d == cfg.VarID(ir.ZeroRegID) {
				continue
			}
			if _, ok := spilledLabel[d]; !ok {
				continue
			}
			if s, already := spilledUses[d]; already {
				defScratch[d] = s
			} else {
				defScratch[d] = nextScratch()
			}
		}

		rewriteSource := func(r *ir.Reg, has bool) {
			if !has {
				return
			}
			v := cfg.VarID(r.ID)
			if s, ok := spilledUses[v]; ok {
				r.ID = s
				return
			}
			if mc, ok := varToMachineReg[v]; ok {
				r.ID = mc
			}
		}
		rewriteSource(&in.Rs1, in.HasRs1)
		rewriteSource(&in.Rs2, in.HasRs2)
		if in.HasRd {
			v := cfg.VarID(in.Rd.ID)
			if s, ok := defScratch[v]; ok {
				in.Rd.ID = s
			} else if s, ok := spilledUses[v]; ok {
				in.Rd.ID = s
			} else if mc, ok := varToMachineReg[v]; ok {
				in.Rd.ID = mc
			}
		}

		if firstLoad != nil && in.HasLabel() {
			p.MoveLabel(in, firstLoad)
		}

		for _, d := range n.Defs {
			if d == cfg.Psw || d == cfg.VarID(ir.ZeroRegID) {
				continue
			}
			lbl, ok := spilledLabel[d]
			if !ok {
				continue
			}
			s := defScratch[d]
			addr := ir.LabelAddr(lbl)
			p.InsertInstrAfter(in, ir.OpStore, ir.InstrSpec{Rd: ir.R(s), HasRd: true, Addr: &addr})
		}
	}

	// Final pass: substitute any remaining virtual register id (including
	// ones on instructions the CFG builder skipped, e.g. scaffolding loads)
	// with its allocated machine register.
	for _, in := range p.Instructions() {
		fix := func(r *ir.Reg, has bool) {
			if !has || r.ID == ir.ZeroRegID {
				return
			}
			if mc, ok := varToMachineReg[cfg.VarID(r.ID)]; ok {
				r.ID = mc
			}
		}
		fix(&in.Rd, in.HasRd)
		fix(&in.Rs1, in.HasRs1)
		fix(&in.Rs2, in.HasRs2)
	}
	return nil
}
