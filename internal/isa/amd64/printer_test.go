package amd64

import (
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/stretchr/testify/require"
)

func TestPrintEmitsNASMPreamble(t *testing.T) {
	p := ir.NewProgram()
	p.EmitHalt()

	out, err := Print(p)
	require.NoError(t, err)
	require.Contains(t, out, "bits 64")
	require.Contains(t, out, "global __lance_start")
	require.Contains(t, out, "__lance_start:")
}

func TestPrintRendersMachineRegisterNames(t *testing.T) {
	p := ir.NewProgram()
	// Simulates post-allocation state: operands already carry machine ids.
	p.EmitTernary(ir.OpAdd, ir.R(RAX), ir.R(RAX), ir.R(RDX))
	p.EmitHalt()

	out, err := Print(p)
	require.NoError(t, err)
	require.Contains(t, out, "add eax, edx")
}

func TestPrintRejectsUnloweredDivI(t *testing.T) {
	p := ir.NewProgram()
	p.EmitImmediate(ir.OpDivI, ir.R(1), ir.R(1), 3)
	p.EmitHalt()

	_, err := Print(p)
	require.Error(t, err)
}
