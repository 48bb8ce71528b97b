package regalloc

import (
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/cfg"
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/stretchr/testify/require"
)

// buildManyLiveVars declares more simultaneously-live temporaries than the
// tiny two-register pool used below forces at least one spill (scenario S5).
func buildManyLiveVars(t *testing.T) (*ir.Program, *cfg.Graph) {
	p := ir.NewProgram()
	regs := make([]ir.Reg, 5)
	for i := range regs {
		regs[i] = ir.R(i + 1)
		p.EmitImmediate(ir.OpAddI, regs[i], ir.R(0), int32(i))
	}
	// Keep all five alive simultaneously by summing them at the end.
	acc := ir.R(100)
	p.EmitTernary(ir.OpAdd, acc, regs[0], regs[1])
	for i := 2; i < len(regs); i++ {
		p.EmitTernary(ir.OpAdd, acc, acc, regs[i])
	}
	p.EmitAxeWrite(acc)
	p.EmitHalt()

	g, err := cfg.Build(p)
	require.NoError(t, err)
	return p, g
}

func TestMaterializeInsertsLoadsAndStoresAroundSpills(t *testing.T) {
	p, g := buildManyLiveVars(t)
	cfg.ComputeLiveness(g, cfg.DefaultOptions())
	g.AssignPositions()

	intervals := BuildIntervals(g)
	require.NoError(t, InitConstraints(g, intervals, []int{1, 2}))
	res, err := Allocate(intervals)
	require.NoError(t, err)

	hadSpill := false
	for _, iv := range res.Intervals {
		if iv.Spilled() {
			hadSpill = true
		}
	}
	require.True(t, hadSpill, "expected the tiny register pool to force a spill")

	require.NoError(t, Materialize(p, g, res, []int{9, 10, 11}))

	loads, stores := 0, 0
	for _, in := range p.Instructions() {
		switch in.Op {
		case ir.OpLoad:
			loads++
		case ir.OpStore:
			stores++
		}
	}
	require.Greater(t, loads, 0)

	// Post-materialization invariant (spec.md §8 property 6): no operand
	// should reference a virtual register id anymore. Every surviving id is
	// either the zero register or one of the machine ids we allocated from.
	allowed := map[int]bool{0: true, 1: true, 2: true, 9: true, 10: true, 11: true}
	for _, in := range p.Instructions() {
		if in.HasRd {
			require.True(t, allowed[in.Rd.ID], "unexpected register id %d", in.Rd.ID)
		}
		if in.HasRs1 {
			require.True(t, allowed[in.Rs1.ID], "unexpected register id %d", in.Rs1.ID)
		}
		if in.HasRs2 {
			require.True(t, allowed[in.Rs2.ID], "unexpected register id %d", in.Rs2.ID)
		}
	}
	_ = stores
}
