package frontend

import (
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/stretchr/testify/require"
)

func TestParseScalarAssignmentAndWrite(t *testing.T) {
	p, warn, err := Parse(`
		int x = 1;
		x = x + 2;
		write(x);
	`)
	require.NoError(t, err)
	require.True(t, warn.Empty())
	require.Len(t, p.Variables, 1)
	require.Equal(t, "x", p.Variables[0].Name)

	var writes int
	for _, in := range p.Instructions() {
		if in.Op == ir.OpAxeWrite {
			writes++
		}
	}
	require.Equal(t, 1, writes)
}

func TestParseWhileLoopBuildsBackEdge(t *testing.T) {
	p, _, err := Parse(`
		int i = 0;
		int n;
		read(n);
		while (i < n) {
			i = i + 1;
		}
		write(i);
	`)
	require.NoError(t, err)

	var branches, unconditional int
	for _, in := range p.Instructions() {
		if in.Op.IsConditionalBranch() {
			branches++
		}
		if in.Op == ir.OpBt {
			unconditional++
		}
	}
	require.Greater(t, branches, 0)
	require.Greater(t, unconditional, 0)
}

func TestParseArrayIndexing(t *testing.T) {
	p, _, err := Parse(`
		int a[10];
		a[0] = 42;
		write(a[0]);
	`)
	require.NoError(t, err)

	var loads, stores int
	for _, in := range p.Instructions() {
		switch in.Op {
		case ir.OpLoad:
			loads++
		case ir.OpStore:
			stores++
		}
	}
	require.Greater(t, loads, 0)
	require.Greater(t, stores, 0)
}

func TestConstantFoldDivisionByZeroWarns(t *testing.T) {
	p, warn, err := Parse(`
		int x;
		x = 1 / 0;
		write(x);
	`)
	require.NoError(t, err)
	require.False(t, warn.Empty())

	var writes int
	for _, in := range p.Instructions() {
		if in.Op == ir.OpAxeWrite {
			writes++
		}
	}
	require.Equal(t, 1, writes)
}

func TestUndeclaredVariableIsAnError(t *testing.T) {
	_, _, err := Parse(`x = 1;`)
	require.Error(t, err)
}
