package mace

import (
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/stretchr/testify/require"
)

func TestLowerLeavesSmallImmediatesAlone(t *testing.T) {
	p := ir.NewProgram()
	in := p.EmitImmediate(ir.OpAddI, ir.R(1), ir.R(0), 100)
	p.EmitHalt()

	require.NoError(t, Lower(p))

	require.Equal(t, ir.OpAddI, in.Op)
	require.Equal(t, int32(100), *in.Imm)
}

func TestLowerExpandsLargeImmediate(t *testing.T) {
	p := ir.NewProgram()
	in := p.EmitImmediate(ir.OpAddI, ir.R(1), ir.R(0), 100000)
	p.EmitHalt()

	require.NoError(t, Lower(p))

	require.Equal(t, ir.OpAdd, in.Op)
	require.True(t, in.HasRs2)
	require.Nil(t, in.Imm)

	// Three instructions materialize the split value ahead of the rewritten add.
	count := 0
	for _, i := range p.Instructions() {
		if i == in {
			break
		}
		count++
	}
	require.Equal(t, 3, count)
}

func TestPrintRendersUppercaseMnemonics(t *testing.T) {
	p := ir.NewProgram()
	p.EmitTernary(ir.OpAdd, ir.R(1), ir.R(2), ir.R(3))
	p.EmitHalt()

	out, err := Print(p)
	require.NoError(t, err)
	require.Contains(t, out, "ADD R1, R2, R3")
	require.Contains(t, out, "HALT")
}

func TestWriteObjectHasMagicHeader(t *testing.T) {
	p := ir.NewProgram()
	p.EmitHalt()

	out, err := WriteObject(p)
	require.NoError(t, err)
	require.Equal(t, []byte("LFCM"), out[:4])
	require.Len(t, out, 4+16+4) // header + reserved + one HALT word
}
