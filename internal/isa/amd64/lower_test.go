package amd64

import (
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/stretchr/testify/require"
)

func TestRewriteLogicalOpsEliminatesAndL(t *testing.T) {
	p := ir.NewProgram()
	p.EmitTernary(ir.OpAndL, ir.R(3), ir.R(1), ir.R(2))
	p.EmitHalt()

	rewriteLogicalOps(p)

	for _, in := range p.Instructions() {
		require.NotEqual(t, ir.OpAndL, in.Op)
	}
}

func TestFixIOCallsPinsABIRegisters(t *testing.T) {
	p := ir.NewProgram()
	p.EmitAxeWrite(ir.R(1))
	p.EmitHalt()

	fixIOCalls(p)

	var write *ir.Instruction
	for _, in := range p.Instructions() {
		if in.Op == ir.OpAxeWrite {
			write = in
		}
	}
	require.NotNil(t, write)
	require.Contains(t, write.Rd.MCWhitelist, FirstArgReg)
}

func TestInsertAllocConstraintsPinsShiftCount(t *testing.T) {
	p := ir.NewProgram()
	in := p.EmitTernary(ir.OpShl, ir.R(1), ir.R(1), ir.R(2))
	p.EmitHalt()

	require.NoError(t, insertAllocConstraints(p))

	require.Contains(t, in.Rs2.MCWhitelist, ShiftCountReg)
}

func TestFixTwoAddressFormRewritesImmediateOps(t *testing.T) {
	// i = i + 1 with the frontend's usual fresh-rd-for-rs1 shape: rs1 != rd.
	p := ir.NewProgram()
	in := p.EmitImmediate(ir.OpAddI, ir.R(2), ir.R(1), 1)
	p.EmitHalt()

	fixTwoAddressForm(p)

	require.Equal(t, ir.R(2), in.Rs1, "rs1 must be rewritten to rd so the printer's 2-address add is correct")

	var copyIn *ir.Instruction
	for _, i := range p.Instructions() {
		if i != in && i.Op == ir.OpAddI && i.HasRd && i.Rd.ID == 2 && i.HasRs1 && i.Rs1.ID == 1 {
			copyIn = i
		}
	}
	require.NotNil(t, copyIn, "expected a materializing copy from the original rs1 into rd")
}

func TestFixTwoAddressFormSkipsMulI(t *testing.T) {
	p := ir.NewProgram()
	in := p.EmitImmediate(ir.OpMulI, ir.R(2), ir.R(1), 3)
	p.EmitHalt()

	fixTwoAddressForm(p)

	require.Equal(t, ir.R(1), in.Rs1, "muli keeps its three-operand immediate form")
}

func TestInsertAllocConstraintsPinsDivToAccumulator(t *testing.T) {
	p := ir.NewProgram()
	in := p.EmitTernary(ir.OpDiv, ir.R(1), ir.R(1), ir.R(2))
	p.EmitHalt()

	require.NoError(t, insertAllocConstraints(p))

	require.Contains(t, in.Rd.MCWhitelist, AccumulatorReg)
	require.Contains(t, in.Rs1.MCWhitelist, AccumulatorReg)
}
