package ir

// Builder convenience layer (spec.md §4.2): each EmitX call constructs an
// instruction, attaches any pending label, appends it at the current
// insertion point, and returns it.

func (p *Program) ReserveLabel() LabelID { return p.Labels.Reserve() }

// AttachLabel enqueues l as pending; the next EmitX call binds it.
func (p *Program) AttachLabel(l LabelID) LabelID { return p.Labels.Attach(l) }

func (p *Program) SetLabelName(l LabelID, name string) { p.Labels.SetName(l, name) }

func imm(v int32) *int32 { return &v }

func (p *Program) EmitTernary(op Opcode, rd, rs1, rs2 Reg) *Instruction {
	return p.emit(op, instrSpec{rd: rd, rs1: rs1, rs2: rs2, hasRd: true, hasRs1: true, hasRs2: true})
}

func (p *Program) EmitUnary(op Opcode, rd, rs1 Reg) *Instruction {
	return p.emit(op, instrSpec{rd: rd, rs1: rs1, hasRd: true, hasRs1: true})
}

func (p *Program) EmitImmediate(op Opcode, rd, rs1 Reg, value int32) *Instruction {
	return p.emit(op, instrSpec{rd: rd, rs1: rs1, hasRd: true, hasRs1: true, imm: imm(value)})
}

func (p *Program) EmitSetCC(op Opcode, rd Reg) *Instruction {
	return p.emit(op, instrSpec{rd: rd, hasRd: true})
}

// EmitBranch emits a conditional (or unconditional bt/bf) branch to target.
func (p *Program) EmitBranch(op Opcode, target LabelID) *Instruction {
	a := LabelAddr(target)
	return p.emit(op, instrSpec{addr: &a})
}

func (p *Program) EmitLoad(rd, rs1 Reg) *Instruction {
	return p.emit(OpLoad, instrSpec{rd: rd, rs1: rs1, hasRd: true, hasRs1: true})
}

// EmitLoadNoDest is the frontend-scaffolding form described in spec.md
// §4.3 ("load instructions with no destination register... are skipped"
// by the CFG builder). The frontend in internal/frontend does not emit it.
func (p *Program) EmitLoadNoDest(rs1 Reg) *Instruction {
	return p.emit(OpLoad, instrSpec{rs1: rs1, hasRs1: true})
}

func (p *Program) EmitLoadAddr(rd Reg, a Address) *Instruction {
	return p.emit(OpLoad, instrSpec{rd: rd, hasRd: true, addr: &a})
}

func (p *Program) EmitStore(rd, rs1 Reg) *Instruction {
	return p.emit(OpStore, instrSpec{rd: rd, rs1: rs1, hasRd: true, hasRs1: true})
}

func (p *Program) EmitStoreAddr(rd Reg, a Address) *Instruction {
	return p.emit(OpStore, instrSpec{rd: rd, hasRd: true, addr: &a})
}

func (p *Program) EmitMova(rd Reg, a Address) *Instruction {
	return p.emit(OpMova, instrSpec{rd: rd, hasRd: true, addr: &a})
}

func (p *Program) EmitAxeRead(rd Reg) *Instruction {
	return p.emit(OpAxeRead, instrSpec{rd: rd, hasRd: true})
}

func (p *Program) EmitAxeWrite(rd Reg) *Instruction {
	return p.emit(OpAxeWrite, instrSpec{rd: rd, hasRd: true})
}

func (p *Program) EmitNop() *Instruction  { return p.emit(OpNop, instrSpec{}) }
func (p *Program) EmitHalt() *Instruction { return p.emit(OpHalt, instrSpec{}) }
func (p *Program) EmitRet() *Instruction  { return p.emit(OpRet, instrSpec{}) }
func (p *Program) EmitJsr(a Address) *Instruction {
	return p.emit(OpJsr, instrSpec{addr: &a})
}
