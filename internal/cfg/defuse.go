package cfg

import "github.com/danielecattaneo/acse-multitarget/internal/ir"

// computeDefUse implements spec.md §4.3 "Def/use extraction" for one
// instruction, including the implicit psw (flags) register.
func computeDefUse(in *ir.Instruction) (defs, uses []VarID) {
	op := in.Op
	cat := op.Category()

	addUse := func(r ir.Reg, has bool) {
		if has {
			uses = append(uses, VarID(r.ID))
		}
	}
	addDef := func(r ir.Reg) { defs = append(defs, VarID(r.ID)) }

	switch op {
	case ir.OpLoad, ir.OpAxeRead, ir.OpMova:
		if in.HasRd {
			addDef(in.Rd)
		}
		addUse(in.Rs1, in.HasRs1)

	case ir.OpStore, ir.OpAxeWrite:
		// The register operand is a source, even though it sits in the Rd slot.
		if in.HasRd {
			uses = append(uses, VarID(in.Rd.ID))
		}
		addUse(in.Rs1, in.HasRs1)

	default:
		switch cat {
		case ir.CatSetCC:
			if in.HasRd {
				addDef(in.Rd)
			}
		case ir.CatImmediate:
			if in.HasRd {
				addDef(in.Rd)
			}
			addUse(in.Rs1, in.HasRs1)
		case ir.CatTernary:
			if in.HasRd {
				if in.Rd.Indirect {
					uses = append(uses, VarID(in.Rd.ID))
				} else {
					addDef(in.Rd)
				}
			}
			addUse(in.Rs1, in.HasRs1)
			addUse(in.Rs2, in.HasRs2)
		case ir.CatDummy:
			if in.HasRd {
				addDef(in.Rd)
			}
		}
	}

	// Flags register: defined by every arithmetic/logical/shift/negation/
	// set-on-condition instruction; used by every conditional branch.
	switch cat {
	case ir.CatTernary, ir.CatImmediate, ir.CatSetCC:
		defs = append(defs, Psw)
	}
	if op.IsConditionalBranch() {
		uses = append(uses, Psw)
	}
	return defs, uses
}
