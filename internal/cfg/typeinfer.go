package cfg

import "github.com/danielecattaneo/acse-multitarget/internal/ir"

// inferTypes implements spec.md §4.3 "Type inference". For each definition
// with an inferred type, the definition's type is the join (Max) of its
// source types, with an indirectly-used source's pointer bit stripped
// first. The resulting cfg-var type is then propagated back onto every
// instruction operand referencing that variable.
func inferTypes(g *Graph, nodes []*InstrNode) {
	for _, n := range nodes {
		in := n.Instr
		if !in.HasRd || in.Rd.Indirect {
			continue // indirect rd is a use, not a def (§4.3)
		}
		if in.Op.Category() != ir.CatTernary && in.Op.Category() != ir.CatImmediate {
			continue // setcc/load/etc. define integer-typed results; leave default
		}
		t1 := sourceType(in.Rs1, in.HasRs1)
		t2 := sourceType(in.Rs2, in.HasRs2)
		defType := t1.Max(t2)
		if defType == ir.TypeInferred {
			continue
		}
		v := g.Var(VarID(in.Rd.ID))
		v.Type = v.Type.Max(defType)
	}

	// Propagate each var's resolved type back onto every operand that
	// references it and was left inferred by the frontend.
	for _, n := range nodes {
		in := n.Instr
		propagate := func(r *ir.Reg, has bool) {
			if !has || r.Type != ir.TypeInferred {
				return
			}
			if v, ok := g.Vars[VarID(r.ID)]; ok && v.Type != ir.TypeInferred {
				r.Type = v.Type
			}
		}
		propagate(&n.Instr.Rd, in.HasRd)
		propagate(&n.Instr.Rs1, in.HasRs1)
		propagate(&n.Instr.Rs2, in.HasRs2)
	}
}

func sourceType(r ir.Reg, has bool) ir.RegType {
	if !has {
		return ir.TypeInferred
	}
	t := r.Type
	if r.Indirect {
		t = t.StripPointer()
	}
	return t
}
