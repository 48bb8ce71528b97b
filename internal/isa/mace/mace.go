// Package mace implements the MACE target of spec.md §4.5/§4.8/§6: the one
// MACE-specific lowering pass (large-immediate expansion), the MACE text
// assembly printer, and the MACE object-file writer.
//
// Grounded on original_source/mace/machine.c for the object header layout
// (the per-opcode instruction-word encoding in obj.go is this package's
// own, see DESIGN.md), and on the internal/isa/amd64 package's
// pass-sequencing idiom (seqBuilder-less here: MACE needs only one pass).
package mace

import (
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
)

// MaxImmediate is the largest value MACE can encode directly in an
// immediate-form instruction word (original_source/mace/machine.c's 16-bit
// immediate field).
const MaxImmediate = 1<<15 - 1

// MinImmediate is the smallest directly encodable (two's-complement) value.
const MinImmediate = -(1 << 15)

func imm32(v int32) *int32 { return &v }

// Lower expands any immediate operand MACE cannot encode directly in one
// instruction word into a three-instruction materialization (high 16 bits
// loaded, shifted into place, then low 16 bits folded in with a bitwise
// or-immediate,
// whose field is zero-extended rather than sign-extended, unlike the
// arithmetic immediate ops), rewriting the instruction to its non-immediate
// form (spec.md §4.5 "MACE: large-immediate expansion only").
func Lower(p *ir.Program) error {
	for _, in := range p.Instructions() {
		if !in.Op.IsImmediate() || in.Imm == nil {
			continue
		}
		v := *in.Imm
		if v >= MinImmediate && v <= MaxImmediate {
			continue
		}
		hi := int32(int16(uint32(v) >> 16))
		lo := int32(int16(uint32(v) & 0xFFFF))

		tmp := ir.R(p.NewVirtualRegister())
		p.InsertInstrBefore(in, ir.OpAddI, ir.InstrSpec{Rd: tmp, Rs1: ir.R(0), HasRd: true, HasRs1: true, Imm: imm32(hi)})
		p.InsertInstrBefore(in, ir.OpShlI, ir.InstrSpec{Rd: tmp, Rs1: tmp, HasRd: true, HasRs1: true, Imm: imm32(16)})
		merged := ir.R(p.NewVirtualRegister())
		p.InsertInstrBefore(in, ir.OpOrBI, ir.InstrSpec{Rd: merged, Rs1: tmp, HasRd: true, HasRs1: true, Imm: imm32(lo)})

		in.Op = in.Op.NonImmediateOf()
		in.Rs2 = merged
		in.HasRs2 = true
		in.Imm = nil
	}
	return nil
}
