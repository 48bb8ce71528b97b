package ir

import (
	"fmt"
	"strings"

	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// nodeID indexes Program.nodes: the arena backing the instruction list.
// This is the "arena + stable index" translation of an intrusive doubly
// linked list with position cursors (spec.md §9 Design Notes).
type nodeID int

const nilNode nodeID = -1

// appendEnd is the insertion-point-stack bottom sentinel: "append to the
// end of the list", tracked dynamically against the current tail rather
// than a fixed node (spec.md §4.2).
const appendEnd nodeID = -2

type node struct {
	instr      *Instruction
	prev, next nodeID
	removed    bool
}

// SymtabEntry is what the symbol table maps a source name to: its type and
// the virtual register allocated to hold it (spec.md §3).
type SymtabEntry struct {
	Type  RegType
	RegID int
}

// Program owns everything produced by the frontend via the builder API and
// consumed by every later pass (spec.md §3). Its instruction list and
// insertion-point stack together implement spec.md §4.2.
type Program struct {
	Variables []Variable
	Data      []DataDirective
	Labels    *LabelManager
	Symtab    map[string]*SymtabEntry

	nodes      []node
	head, tail nodeID
	insStack   []nodeID // top = current insertion point; bottom = appendEnd

	nextVReg int
}

func NewProgram() *Program {
	return &Program{
		Labels:   NewLabelManager(),
		Symtab:   map[string]*SymtabEntry{},
		head:     nilNode,
		tail:     nilNode,
		insStack: []nodeID{appendEnd},
		nextVReg: 1, // 0 is the zero register
	}
}

// NewVirtualRegister allocates a fresh virtual register id, never 0.
func (p *Program) NewVirtualRegister() int {
	id := p.nextVReg
	p.nextVReg++
	return id
}

// DeclareVariable registers a new source-level variable and its backing
// label, rejecting redeclaration (spec.md §7 variable-already-declared).
func (p *Program) DeclareVariable(v Variable) error {
	if v.Name == "" {
		return lerr.New(lerr.VariableIDUnspecified, "variable has no name")
	}
	for _, existing := range p.Variables {
		if existing.Name == v.Name {
			return lerr.New(lerr.VariableAlreadyDecl, v.Name)
		}
	}
	if v.IsArray && v.ArraySize <= 0 {
		return lerr.New(lerr.InvalidArraySize, v.Name)
	}
	p.Variables = append(p.Variables, v)
	return nil
}

func (p *Program) Lookup(name string) (*SymtabEntry, bool) {
	e, ok := p.Symtab[name]
	return e, ok
}

func (p *Program) Bind(name string, e *SymtabEntry) error {
	if _, ok := p.Symtab[name]; ok {
		return lerr.New(lerr.SymbolTableError, "duplicate binding for "+name)
	}
	p.Symtab[name] = e
	return nil
}

// --- insertion point stack (spec.md §4.2) ---

// PushInsertAfter moves the cursor to insert after instr (insert at the
// head if instr is nil).
func (p *Program) PushInsertAfter(instr *Instruction) {
	if instr == nil {
		p.insStack = append(p.insStack, nilNode)
		return
	}
	p.insStack = append(p.insStack, instr.node)
}

// PushAppendEnd moves the cursor to always insert after the current tail.
func (p *Program) PushAppendEnd() {
	p.insStack = append(p.insStack, appendEnd)
}

// Pop restores the previous insertion point, flushing any pending label by
// materializing a no-op instruction at the point being abandoned if needed
// (spec.md §4.1/§4.2).
func (p *Program) Pop() {
	if len(p.insStack) <= 1 {
		return // bottom is never popped
	}
	if p.Labels.HasPending() {
		p.emit(OpNop, instrSpec{})
	}
	p.insStack = p.insStack[:len(p.insStack)-1]
}

func (p *Program) currentAnchor() nodeID {
	top := p.insStack[len(p.insStack)-1]
	if top == appendEnd {
		return p.tail
	}
	return top
}

func (p *Program) setAnchor(a nodeID) {
	p.insStack[len(p.insStack)-1] = a
}

// --- instruction list mutation ---

func (p *Program) newNode(instr *Instruction) nodeID {
	id := nodeID(len(p.nodes))
	p.nodes = append(p.nodes, node{instr: instr, prev: nilNode, next: nilNode})
	instr.node = id
	return id
}

// insertAfter splices n in after anchor (nilNode anchor => at head).
func (p *Program) insertAfter(anchor, n nodeID) {
	nd := &p.nodes[n]
	if anchor == nilNode {
		nd.next = p.head
		nd.prev = nilNode
		if p.head != nilNode {
			p.nodes[p.head].prev = n
		}
		p.head = n
		if p.tail == nilNode {
			p.tail = n
		}
		return
	}
	an := &p.nodes[anchor]
	nd.prev = anchor
	nd.next = an.next
	if an.next != nilNode {
		p.nodes[an.next].prev = n
	} else {
		p.tail = n
	}
	an.next = n
}

type instrSpec struct {
	rd, rs1, rs2   Reg
	hasRd, hasRs1, hasRs2 bool
	imm            *int32
	addr           *Address
	comment        string
	mc             MCFlags
}

// emit is the shared core behind every EmitX convenience function (spec.md
// §4.2): it constructs the instruction, attaches any pending label, splices
// it in at the current insertion point, advances that insertion point to
// sit after the new node (so repeated emits at the same cursor append in
// order), and returns the instruction.
func (p *Program) emit(op Opcode, s instrSpec) *Instruction {
	in := &Instruction{
		Op: op, Rd: s.rd, Rs1: s.rs1, Rs2: s.rs2,
		HasRd: s.hasRd, HasRs1: s.hasRs1, HasRs2: s.hasRs2,
		Imm: s.imm, Addr: s.addr, Comment: s.comment, MC: s.mc,
		Label: noLabel,
	}
	n := p.newNode(in)
	anchor := p.currentAnchor()
	p.insertAfter(anchor, n)
	if l, ok := p.Labels.FlushPending(n); ok {
		in.Label = l
	}
	if p.insStack[len(p.insStack)-1] != appendEnd {
		p.setAnchor(n)
	}
	return in
}

// Remove deletes instr from the list. Its label and (if the successor has
// none) its comment migrate to the next instruction, synthesizing a no-op
// if there is no next instruction or it is already labeled (spec.md §4.2).
func (p *Program) Remove(instr *Instruction) {
	n := instr.node
	nd := p.nodes[n]
	if nd.removed {
		return
	}
	needsCarrier := instr.HasLabel()
	var next nodeID = nd.next
	if needsCarrier {
		if next == nilNode || p.nodes[next].instr.HasLabel() {
			// Synthesize a no-op immediately after n to carry the label/comment.
			nop := &Instruction{Op: OpNop, Label: noLabel}
			nn := p.newNode(nop)
			p.insertAfter(n, nn)
			next = nn
		}
		nextInstr := p.nodes[next].instr
		nextInstr.Label = instr.Label
		if lbl := instr.Label; lbl != noLabel {
			// Re-point the label manager's attachment at the new carrier.
			if _, ok := p.Labels.AttachedNode(lbl); ok {
				p.Labels.attached[p.Labels.find(lbl)] = next
			}
		}
		if nextInstr.Comment == "" {
			nextInstr.Comment = instr.Comment
		}
	} else if next != nilNode && p.nodes[next].instr.Comment == "" {
		p.nodes[next].instr.Comment = instr.Comment
	}

	// Unlink n.
	prev := nd.prev
	nxt := p.nodes[n].next
	if prev != nilNode {
		p.nodes[prev].next = nxt
	} else {
		p.head = nxt
	}
	if nxt != nilNode {
		p.nodes[nxt].prev = prev
	} else {
		p.tail = prev
	}
	p.nodes[n].removed = true

	// Rewind any insertion-point-stack entry pointing at n to its predecessor.
	for i, a := range p.insStack {
		if a == n {
			if prev == nilNode {
				p.insStack[i] = nilNode
			} else {
				p.insStack[i] = prev
			}
		}
	}
}

// Instructions returns the instruction list in order.
func (p *Program) Instructions() []*Instruction {
	out := make([]*Instruction, 0, len(p.nodes))
	for n := p.head; n != nilNode; n = p.nodes[n].next {
		if !p.nodes[n].removed {
			out = append(out, p.nodes[n].instr)
		}
	}
	return out
}

// InsertInstrBefore/After are used by later passes (lowering, spill
// materialization) that splice instructions around an existing one without
// touching the cursor stack.
func (p *Program) InsertInstrAfter(anchor *Instruction, op Opcode, s InstrSpec) *Instruction {
	in := &Instruction{
		Op: op, Rd: s.Rd, Rs1: s.Rs1, Rs2: s.Rs2,
		HasRd: s.HasRd, HasRs1: s.HasRs1, HasRs2: s.HasRs2,
		Imm: s.Imm, Addr: s.Addr, Comment: s.Comment, MC: s.MC, Label: noLabel,
	}
	n := p.newNode(in)
	p.insertAfter(anchor.node, n)
	return in
}

func (p *Program) InsertInstrBefore(anchor *Instruction, op Opcode, s InstrSpec) *Instruction {
	prevAnchor := p.nodes[anchor.node].prev
	in := &Instruction{
		Op: op, Rd: s.Rd, Rs1: s.Rs1, Rs2: s.Rs2,
		HasRd: s.HasRd, HasRs1: s.HasRs1, HasRs2: s.HasRs2,
		Imm: s.Imm, Addr: s.Addr, Comment: s.Comment, MC: s.MC, Label: noLabel,
	}
	n := p.newNode(in)
	p.insertAfter(prevAnchor, n)
	if anchor.HasLabel() && prevAnchor == nilNode {
		// anchor was the head carrying a label; the new node is now the head,
		// but the label must stay on anchor, so nothing to do here.
	}
	return in
}

// MoveLabel transfers the label (if any) from src to dst. Used by lowering
// passes that replace an instruction with a synthesized sequence and must
// preserve "labels on the original migrate to the first synthesized
// instruction" (spec.md §4.5 step 1).
func (p *Program) MoveLabel(src, dst *Instruction) {
	if !src.HasLabel() {
		return
	}
	l := src.Label
	dst.Label = l
	src.Label = noLabel
	if _, ok := p.Labels.AttachedNode(l); ok {
		p.Labels.attached[p.Labels.find(l)] = dst.node
	}
}

// InstrSpec mirrors instrSpec but with exported fields, for use by
// sibling packages (cfg, regalloc, isa) that splice instructions in.
type InstrSpec struct {
	Rd, Rs1, Rs2          Reg
	HasRd, HasRs1, HasRs2 bool
	Imm                   *int32
	Addr                  *Address
	Comment               string
	MC                    MCFlags
}

// Dump renders a human-readable listing of the program (spec.md original_source
// axe_debug.c; SPEC_FULL.md §C.3), gated behind --trace in the CLI.
func (p *Program) Dump() string {
	var b strings.Builder
	for _, v := range p.Variables {
		fmt.Fprintf(&b, "var %s\n", v.Name)
	}
	for _, in := range p.Instructions() {
		if in.HasLabel() {
			fmt.Fprintf(&b, "L%d:\n", p.Labels.ID(in.Label))
		}
		fmt.Fprintf(&b, "\t%s\n", in.Op)
	}
	return b.String()
}
