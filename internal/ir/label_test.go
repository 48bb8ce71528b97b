package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelAliasNameWinsOverNameless(t *testing.T) {
	m := NewLabelManager()
	a := m.Reserve()
	b := m.Reserve()
	m.SetName(b, "loop")

	m.Attach(a)
	m.Attach(b) // aliases with the pending a

	require.Equal(t, m.ID(a), m.ID(b))
	require.Equal(t, "loop", m.Name(a))
}

func TestLabelAliasTieGoesToSmallerID(t *testing.T) {
	m := NewLabelManager()
	a := m.Reserve() // smaller id
	b := m.Reserve()
	idA := m.ID(a)

	m.Attach(a)
	m.Attach(b)

	require.Equal(t, m.ID(a), m.ID(b))
	require.Equal(t, idA, m.ID(b)) // both nameless: a's smaller id survives
}

func TestSetNameDisambiguates(t *testing.T) {
	m := NewLabelManager()
	a := m.Reserve()
	b := m.Reserve()
	m.SetName(a, "x")
	m.SetName(b, "x")
	require.NotEqual(t, m.Name(a), m.Name(b))
	require.Equal(t, "x", m.Name(a))
	require.Equal(t, "x_1", m.Name(b))
}

func TestSetNameSanitizes(t *testing.T) {
	m := NewLabelManager()
	a := m.Reserve()
	m.SetName(a, "my label!!")
	require.Equal(t, "my_label__", m.Name(a))
}

func TestPendingLabelConsumedByNextInstruction(t *testing.T) {
	p := NewProgram()
	l := p.ReserveLabel()
	p.AttachLabel(l)
	require.True(t, p.Labels.HasPending())

	in := p.EmitNop()
	require.False(t, p.Labels.HasPending())
	require.True(t, in.HasLabel())
	require.True(t, p.Labels.Equal(in.Label, l))
}
