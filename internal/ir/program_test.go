package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitAppendsInOrder(t *testing.T) {
	p := NewProgram()
	i1 := p.EmitAddI(R(1), R(0), 1)
	i2 := p.EmitAddI(R(2), R(0), 2)
	instrs := p.Instructions()
	require.Equal(t, []*Instruction{i1, i2}, instrs)
}

func (p *Program) EmitAddI(rd, rs1 Reg, v int32) *Instruction {
	return p.EmitImmediate(OpAddI, rd, rs1, v)
}

func TestPushPopInsertionPoint(t *testing.T) {
	p := NewProgram()
	i1 := p.EmitNop()
	i2 := p.EmitNop()

	p.PushInsertAfter(i1)
	mid := p.EmitNop()
	p.Pop()

	i3 := p.EmitNop()

	got := p.Instructions()
	require.Equal(t, []*Instruction{i1, mid, i2, i3}, got)
}

func TestRemoveMigratesLabel(t *testing.T) {
	p := NewProgram()
	l := p.ReserveLabel()
	p.AttachLabel(l)
	toRemove := p.EmitNop()
	require.True(t, toRemove.HasLabel())
	next := p.EmitNop()

	p.Remove(toRemove)

	require.True(t, next.HasLabel())
	require.True(t, p.Labels.Equal(next.Label, l))
	require.Equal(t, []*Instruction{next}, p.Instructions())
}

func TestRemoveSynthesizesNopWhenNoUnlabeledSuccessor(t *testing.T) {
	p := NewProgram()
	l := p.ReserveLabel()
	p.AttachLabel(l)
	toRemove := p.EmitNop()

	p.Remove(toRemove)

	instrs := p.Instructions()
	require.Len(t, instrs, 1)
	require.True(t, instrs[0].HasLabel())
}

func TestRemoveRewindsInsertionStack(t *testing.T) {
	p := NewProgram()
	i1 := p.EmitNop()
	i2 := p.EmitNop()
	p.PushInsertAfter(i2)
	p.Remove(i2)
	p.EmitNop() // should insert after i1, since i2's cursor rewinds to i1
	instrs := p.Instructions()
	require.Equal(t, i1, instrs[0])
}
