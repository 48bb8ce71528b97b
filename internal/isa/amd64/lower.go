package amd64

import (
	"github.com/danielecattaneo/acse-multitarget/internal/cfg"
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
)

// Lower runs the x86-64 target-specific transformer of spec.md §4.5, in
// pass order: logical-op rewrite, flag-user fixup, I/O-call ABI fixup,
// two-address-form fixup, allocation-constraint insertion.
func Lower(p *ir.Program) error {
	rewriteLogicalOps(p)
	if err := fixFlagUsers(p); err != nil {
		return err
	}
	fixIOCalls(p)
	fixTwoAddressForm(p)
	return insertAllocConstraints(p)
}

// seqBuilder threads together a synthesized instruction sequence that
// replaces one original instruction, migrating its label to the first
// synthesized instruction and removing the original once done (spec.md
// §4.5 step 1: "Labels on the original instruction are migrated onto the
// first synthesized instruction").
type seqBuilder struct {
	p      *ir.Program
	anchor *ir.Instruction
	first  *ir.Instruction
}

func (s *seqBuilder) ins(op ir.Opcode, spec ir.InstrSpec) *ir.Instruction {
	in := s.p.InsertInstrBefore(s.anchor, op, spec)
	if s.first == nil {
		s.first = in
	}
	return in
}

func (s *seqBuilder) finish() {
	if s.anchor.HasLabel() && s.first != nil {
		s.p.MoveLabel(s.anchor, s.first)
	}
	s.p.Remove(s.anchor)
}

func imm32(v int32) *int32 { return &v }

// isMove identifies the synthesized "rd = rs1" copy idiom used throughout
// this package (addi rd, rs1, 0): x86 mov does not set flags, which is
// exactly why fixFlagUsers needs to recognize it.
func isMove(in *ir.Instruction) bool {
	return in.Op == ir.OpAddI && in.Imm != nil && *in.Imm == 0 && in.HasRs1
}

// --- pass 1: rewrite logical ops (spec.md §4.5 step 1) ---

func bitwiseOf(op ir.Opcode) ir.Opcode {
	switch op {
	case ir.OpAndL:
		return ir.OpAndB
	case ir.OpOrL:
		return ir.OpOrB
	case ir.OpXorL:
		return ir.OpXorB
	}
	return op
}

// normalize reduces src to {0,1}: a self-and to materialize flags, then sne.
func (s *seqBuilder) normalize(src ir.Reg) ir.Reg {
	s.ins(ir.OpAndB, ir.InstrSpec{Rd: src, Rs1: src, Rs2: src, HasRd: true, HasRs1: true, HasRs2: true})
	out := ir.R(s.p.NewVirtualRegister())
	s.ins(ir.OpSne, ir.InstrSpec{Rd: out, HasRd: true})
	return out
}

func rewriteLogicalOps(p *ir.Program) {
	for _, in := range p.Instructions() {
		switch in.Op {
		case ir.OpAndL, ir.OpOrL, ir.OpXorL:
			sb := &seqBuilder{p: p, anchor: in}
			t1 := sb.normalize(in.Rs1)
			t2 := sb.normalize(in.Rs2)
			sb.ins(bitwiseOf(in.Op), ir.InstrSpec{Rd: in.Rd, Rs1: t1, Rs2: t2, HasRd: true, HasRs1: true, HasRs2: true})
			sb.finish()

		case ir.OpAndLI:
			sb := &seqBuilder{p: p, anchor: in}
			if *in.Imm == 0 {
				sb.ins(ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: ir.R(0), HasRd: true, HasRs1: true, Imm: imm32(0)})
			} else {
				t := sb.normalize(in.Rs1)
				sb.ins(ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: t, HasRd: true, HasRs1: true, Imm: imm32(0)})
			}
			sb.finish()

		case ir.OpOrLI:
			sb := &seqBuilder{p: p, anchor: in}
			if *in.Imm != 0 {
				sb.ins(ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: ir.R(0), HasRd: true, HasRs1: true, Imm: imm32(1)})
			} else {
				t := sb.normalize(in.Rs1)
				sb.ins(ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: t, HasRd: true, HasRs1: true, Imm: imm32(0)})
			}
			sb.finish()

		case ir.OpXorLI:
			sb := &seqBuilder{p: p, anchor: in}
			t := sb.normalize(in.Rs1)
			if *in.Imm == 0 {
				sb.ins(ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: t, HasRd: true, HasRs1: true, Imm: imm32(0)})
			} else {
				sb.ins(ir.OpXorBI, ir.InstrSpec{Rd: in.Rd, Rs1: t, HasRd: true, HasRs1: true, Imm: imm32(1)})
			}
			sb.finish()
		}
	}
}

// --- pass 2: fix flag users (spec.md §4.5 step 2) ---

func fixFlagUsers(p *ir.Program) error {
	g, err := cfg.Build(p)
	if err != nil {
		return err
	}
	done := map[*ir.Instruction]bool{}
	for _, n := range g.AllNodes() {
		in := n.Instr
		if !in.Op.IsConditionalBranch() {
			continue
		}
		for _, d := range cfg.ReachingDefs(n, cfg.Psw) {
			def := d.Instr
			if done[def] {
				continue
			}
			needsFix := isMove(def) || (def.Op.Category() == ir.CatSetCC && def.Op != ir.OpSne)
			if !needsFix {
				continue
			}
			done[def] = true
			materializeFlags(p, def)
		}
	}
	return nil
}

func materializeFlags(p *ir.Program, def *ir.Instruction) {
	if def.Rd.Indirect {
		tmp := ir.R(p.NewVirtualRegister())
		p.InsertInstrAfter(def, ir.OpOrB, ir.InstrSpec{Rd: tmp, Rs1: def.Rd, Rs2: def.Rd, HasRd: true, HasRs1: true, HasRs2: true})
		return
	}
	p.InsertInstrAfter(def, ir.OpAndB, ir.InstrSpec{Rd: def.Rd, Rs1: def.Rd, Rs2: def.Rd, HasRd: true, HasRs1: true, HasRs2: true})
}

// --- pass 3: fix read/write calls (spec.md §4.5 step 3) ---

func fixIOCalls(p *ir.Program) {
	for _, in := range p.Instructions() {
		switch in.Op {
		case ir.OpAxeRead:
			for _, r := range CallerSaved {
				p.InsertInstrBefore(in, ir.OpDummy, ir.InstrSpec{Rd: ir.R(0).WithWhitelist([]int{r}), HasRd: true, MC: ir.MCFlags{Dummy: true}})
			}
			callDest := ir.R(p.NewVirtualRegister()).WithWhitelist([]int{ReturnValueReg})
			origDest := in.Rd
			in.Rd = callDest
			p.InsertInstrAfter(in, ir.OpAddI, ir.InstrSpec{Rd: origDest, Rs1: callDest, HasRd: true, HasRs1: true, Imm: imm32(0)})

		case ir.OpAxeWrite:
			for _, r := range CallerSaved {
				p.InsertInstrBefore(in, ir.OpDummy, ir.InstrSpec{Rd: ir.R(0).WithWhitelist([]int{r}), HasRd: true, MC: ir.MCFlags{Dummy: true}})
			}
			argTmp := ir.R(p.NewVirtualRegister()).WithWhitelist([]int{FirstArgReg})
			p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: argTmp, Rs1: in.Rd, HasRd: true, HasRs1: true, Imm: imm32(0)})
			in.Rd = argTmp
		}
	}
}

// --- pass 4: fix instruction operands into two-address form (spec.md §4.5 step 4) ---

func fixTwoAddressForm(p *ir.Program) {
	for _, in := range p.Instructions() {
		cat := in.Op.Category()
		if (cat != ir.CatTernary && cat != ir.CatImmediate) || in.Op == ir.OpMulI || isMove(in) {
			continue
		}
		if !in.HasRs1 || in.Rs1.ID == in.Rd.ID {
			continue
		}
		if (in.Rd.Indirect && in.Rs2.Indirect) || (in.HasRs2 && in.Rd.ID == in.Rs2.ID) {
			tmp := ir.R(p.NewVirtualRegister())
			p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: tmp, Rs1: in.Rs2, HasRd: true, HasRs1: true, Imm: imm32(0)})
			in.Rs2 = tmp
		}
		p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: in.Rd, Rs1: in.Rs1, HasRd: true, HasRs1: true, Imm: imm32(0)})
		in.Rs1 = in.Rd
	}
}

// --- pass 5: allocation constraints (spec.md §4.5 step 5) ---

func insertAllocConstraints(p *ir.Program) error {
	for _, in := range p.Instructions() {
		switch in.Op {
		case ir.OpShl, ir.OpShr, ir.OpRotl, ir.OpRotr:
			tmp := ir.R(p.NewVirtualRegister()).WithWhitelist([]int{ShiftCountReg})
			p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: tmp, Rs1: in.Rs2, HasRd: true, HasRs1: true, Imm: imm32(0)})
			in.Rs2 = tmp

		case ir.OpDivI:
			tmp := ir.R(p.NewVirtualRegister())
			p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: tmp, Rs1: ir.R(0), HasRd: true, HasRs1: true, Imm: in.Imm})
			in.Op = ir.OpDiv
			in.Rs2 = tmp
			in.HasRs2 = true
			in.Imm = nil
			fixDiv(p, in)

		case ir.OpDiv:
			fixDiv(p, in)
		}
	}
	return nil
}

func fixDiv(p *ir.Program, in *ir.Instruction) {
	signBit := ir.R(p.NewVirtualRegister())
	p.InsertInstrBefore(in, ir.OpSubI, ir.InstrSpec{Rd: ir.R(0), Rs1: in.Rs1, HasRd: true, HasRs1: true, Imm: imm32(0)})
	p.InsertInstrBefore(in, ir.OpSlt, ir.InstrSpec{Rd: signBit, HasRd: true})
	p.InsertInstrBefore(in, ir.OpNeg, ir.InstrSpec{Rd: ir.R(0).WithWhitelist([]int{EdxReg}), Rs1: signBit, HasRd: true, HasRs1: true})

	in.Rd = in.Rd.WithWhitelist([]int{AccumulatorReg})
	in.Rs1 = in.Rs1.WithWhitelist([]int{AccumulatorReg})
	p.InsertInstrAfter(in, ir.OpDummy, ir.InstrSpec{Rd: ir.R(0).WithWhitelist([]int{EdxReg}), HasRd: true, MC: ir.MCFlags{Dummy: true}})
}
