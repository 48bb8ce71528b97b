package ir

// Instruction is an IR instruction: an opcode plus up to three register
// operands, an optional immediate, an optional address, an optional
// attached label, a free-form comment, and machine-code flags (spec.md §3).
type Instruction struct {
	Op      Opcode
	Rd      Reg
	Rs1     Reg
	Rs2     Reg
	HasRd   bool
	HasRs1  bool
	HasRs2  bool
	Imm     *int32
	Addr    *Address
	Label   LabelID // noLabel if none
	Comment string
	MC      MCFlags

	node nodeID // back-pointer into Program's arena; internal bookkeeping only
}

func (in *Instruction) HasLabel() bool { return in.Label != noLabel }

// DataDirective is a `.word`/`.space` entry (spec.md §3).
type DataDirective struct {
	IsSpace bool // false => word (one initialized word), true => space (uninitialized bytes)
	Label   LabelID
	Value   int32 // word initializer, or byte count for space
}

// Variable is a named source-level variable (spec.md §3).
type Variable struct {
	Name        string
	ElemType    RegType
	IsArray     bool
	ArraySize   int32
	Initializer int32 // scalar initializer, ignored for arrays
	Label       LabelID
}
