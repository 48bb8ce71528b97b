package main

import (
	"strings"
	"testing"

	"github.com/danielecattaneo/acse-multitarget/internal/frontend"
	"github.com/stretchr/testify/require"
)

func TestCompileAmd64ProducesNASM(t *testing.T) {
	p, _, err := frontend.Parse(`
		int i = 0;
		int n;
		read(n);
		while (i < n) {
			i = i + 1;
		}
		write(i);
	`)
	require.NoError(t, err)

	out, err := compile(p, "amd64", false)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), "__lance_start:"))
	require.True(t, strings.Contains(string(out), "call __axe_read"))
	require.True(t, strings.Contains(string(out), "call __axe_write"))
}

// Regression test: the i = i + 1 loop body from scenario S4 (spec.md §8) is
// exactly the var-op-const shape that requires two-address fixup on the
// immediate form, not just register-register ternary ops. If
// fixTwoAddressForm skips CatImmediate, this compiles to "add <rd>, 1" on an
// uninitialized register instead of first copying rs1 into rd.
func TestCompileAmd64TwoAddressFixupOnImmediateOp(t *testing.T) {
	p, _, err := frontend.Parse(`
		int i;
		i = i + 1;
		write(i);
	`)
	require.NoError(t, err)

	out, err := compile(p, "amd64", false)
	require.NoError(t, err)

	text := string(out)
	addIdx := strings.Index(text, "\tadd ")
	require.True(t, addIdx >= 0, "expected an add instruction in the emitted assembly:\n%s", text)

	fields := strings.Fields(text[addIdx:])
	require.True(t, len(fields) >= 2)
	dst := strings.TrimSuffix(fields[1], ",")

	// The add's destination register must have been loaded via mov from
	// somewhere before the add executes, not left uninitialized.
	require.True(t, strings.Contains(text[:addIdx], "mov "+dst+","),
		"add destination %q must be materialized before use:\n%s", dst, text)
}

func TestCompileMaceProducesObject(t *testing.T) {
	p, _, err := frontend.Parse(`
		int x = 5;
		write(x);
	`)
	require.NoError(t, err)

	out, err := compile(p, "mace", true)
	require.NoError(t, err)
	require.Equal(t, "LFCM", string(out[:4]))
}

func TestCompileUnknownTargetErrors(t *testing.T) {
	p, _, err := frontend.Parse(`int x; write(x);`)
	require.NoError(t, err)

	_, err = compile(p, "bogus", false)
	require.Error(t, err)
}
