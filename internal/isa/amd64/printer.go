package amd64

import (
	"fmt"
	"strings"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// Print renders p as NASM source text (spec.md §4.8/§6): a flat `bits 64`
// module with `.bss`/`.data`/`.text` sections, a `__lance_start` entry point,
// and calls out to the `__axe_read`/`__axe_write` runtime-library functions.
func Print(p *ir.Program) (string, error) {
	var b strings.Builder
	b.WriteString("bits 64\n")
	b.WriteString("default rel\n\n")
	b.WriteString("global __lance_start\n")
	b.WriteString("extern __axe_read\n")
	b.WriteString("extern __axe_write\n\n")

	printData(&b, p)

	b.WriteString("\nsection .text\n")
	b.WriteString("__lance_start:\n")
	printPrologue(&b)

	for _, in := range p.Instructions() {
		if in.HasLabel() {
			fmt.Fprintf(&b, "%s:\n", labelSym(p, in.Label))
		}
		if in.MC.Dummy {
			continue // spec.md §3: dummy defs are allocator bookkeeping only, never emitted
		}
		if err := printInstr(&b, p, in); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func printData(b *strings.Builder, p *ir.Program) {
	b.WriteString("section .bss\n")
	for _, v := range p.Variables {
		if v.Initializer != 0 {
			continue
		}
		n := int32(1)
		if v.IsArray {
			n = v.ArraySize
		}
		fmt.Fprintf(b, "%s: resd %d\n", labelSym(p, v.Label), n)
	}

	b.WriteString("\nsection .data\n")
	for _, v := range p.Variables {
		if v.Initializer == 0 {
			continue
		}
		fmt.Fprintf(b, "%s: dd %d\n", labelSym(p, v.Label), v.Initializer)
	}
	for _, d := range p.Data {
		if d.IsSpace {
			fmt.Fprintf(b, "%s: resb %d\n", labelSym(p, d.Label), d.Value)
		} else {
			fmt.Fprintf(b, "%s: dd %d\n", labelSym(p, d.Label), d.Value)
		}
	}
}

// printPrologue saves the System-V callee-saved registers this backend
// allocates out of and keeps the stack 16-byte aligned across calls
// (spec.md §4.8).
func printPrologue(b *strings.Builder) {
	for _, r := range CalleeSaved {
		fmt.Fprintf(b, "\tpush %s\n", Name64(r))
	}
	if len(CalleeSaved)%2 == 0 {
		b.WriteString("\tsub rsp, 8\n")
	}
}

func printEpilogue(b *strings.Builder) {
	if len(CalleeSaved)%2 == 0 {
		b.WriteString("\tadd rsp, 8\n")
	}
	for i := len(CalleeSaved) - 1; i >= 0; i-- {
		fmt.Fprintf(b, "\tpop %s\n", Name64(CalleeSaved[i]))
	}
}

func labelSym(p *ir.Program, l ir.LabelID) string {
	if n := p.Labels.Name(l); n != "" {
		return n
	}
	return fmt.Sprintf("L%d", p.Labels.ID(l))
}

// regName picks the register name by operand type: pointer/indirect operands
// print as 64-bit, plain integers as 32-bit (spec.md §4.8 "register-name-by-
// operand-type selection").
func regName(r ir.Reg) string {
	if r.Type.IsPointer() || r.Indirect {
		return Name64(r.ID)
	}
	return Name32(r.ID)
}

func operand(r ir.Reg) string {
	if r.Indirect {
		return fmt.Sprintf("[%s]", Name64(r.ID))
	}
	return regName(r)
}

var ternaryMnemonic = map[ir.Opcode]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpAndB: "and", ir.OpOrB: "or", ir.OpXorB: "xor",
}

var setccMnemonic = map[ir.Opcode]string{
	ir.OpSeq: "sete", ir.OpSne: "setne", ir.OpSlt: "setl", ir.OpSle: "setle", ir.OpSgt: "setg", ir.OpSge: "setge",
}

var condBranchMnemonic = map[ir.Opcode]string{
	ir.OpBhi: "ja", ir.OpBls: "jbe", ir.OpBcc: "jae", ir.OpBcs: "jb",
	ir.OpBne: "jne", ir.OpBeq: "je", ir.OpBvc: "jno", ir.OpBvs: "jo",
	ir.OpBpl: "jns", ir.OpBmi: "js", ir.OpBge: "jge", ir.OpBlt: "jl",
	ir.OpBgt: "jg", ir.OpBle: "jle",
}

func printInstr(b *strings.Builder, p *ir.Program, in *ir.Instruction) error {
	switch in.Op {
	case ir.OpNop:
		return nil
	case ir.OpHalt:
		printEpilogue(b)
		b.WriteString("\txor eax, eax\n\tret\n")
		return nil
	case ir.OpRet:
		printEpilogue(b)
		b.WriteString("\tret\n")
		return nil

	case ir.OpAdd, ir.OpSub, ir.OpAndB, ir.OpOrB, ir.OpXorB:
		fmt.Fprintf(b, "\t%s %s, %s\n", ternaryMnemonic[in.Op], operand(in.Rd), operand(in.Rs2))
		return nil
	case ir.OpAddI, ir.OpSubI, ir.OpAndBI, ir.OpOrBI, ir.OpXorBI:
		if isMove(in) {
			if in.Rs1.ID != in.Rd.ID {
				fmt.Fprintf(b, "\tmov %s, %s\n", operand(in.Rd), operand(in.Rs1))
			}
			return nil
		}
		m := map[ir.Opcode]string{ir.OpAddI: "add", ir.OpSubI: "sub", ir.OpAndBI: "and", ir.OpOrBI: "or", ir.OpXorBI: "xor"}[in.Op]
		fmt.Fprintf(b, "\t%s %s, %d\n", m, operand(in.Rd), *in.Imm)
		return nil

	case ir.OpMul:
		fmt.Fprintf(b, "\timul %s, %s\n", operand(in.Rd), operand(in.Rs2))
		return nil
	case ir.OpMulI:
		fmt.Fprintf(b, "\timul %s, %s, %d\n", operand(in.Rd), operand(in.Rs1), *in.Imm)
		return nil

	case ir.OpDiv:
		b.WriteString("\tidiv " + operand(in.Rs2) + "\n")
		return nil
	case ir.OpDivI:
		return lerr.New(lerr.UnencodableInstruction, "divi must be lowered before printing")

	case ir.OpShl, ir.OpRotl:
		m := map[ir.Opcode]string{ir.OpShl: "shl", ir.OpRotl: "rol"}[in.Op]
		fmt.Fprintf(b, "\t%s %s, cl\n", m, operand(in.Rd))
		return nil
	case ir.OpShr, ir.OpRotr:
		m := map[ir.Opcode]string{ir.OpShr: "shr", ir.OpRotr: "ror"}[in.Op]
		fmt.Fprintf(b, "\t%s %s, cl\n", m, operand(in.Rd))
		return nil
	case ir.OpShlI, ir.OpShrI, ir.OpRotlI, ir.OpRotrI:
		m := map[ir.Opcode]string{ir.OpShlI: "shl", ir.OpShrI: "shr", ir.OpRotlI: "rol", ir.OpRotrI: "ror"}[in.Op]
		fmt.Fprintf(b, "\t%s %s, %d\n", m, operand(in.Rd), *in.Imm)
		return nil

	case ir.OpNeg:
		fmt.Fprintf(b, "\tneg %s\n", operand(in.Rd))
		return nil

	case ir.OpSeq, ir.OpSne, ir.OpSlt, ir.OpSle, ir.OpSgt, ir.OpSge:
		fmt.Fprintf(b, "\t%s %s\n\tmovzx %s, %s\n", setccMnemonic[in.Op], Name8(in.Rd.ID), regName(in.Rd), Name8(in.Rd.ID))
		return nil

	case ir.OpBt:
		fmt.Fprintf(b, "\tjmp %s\n", labelSym(p, in.Addr.Label))
		return nil
	case ir.OpBf:
		return nil
	case ir.OpBhi, ir.OpBls, ir.OpBcc, ir.OpBcs, ir.OpBne, ir.OpBeq, ir.OpBvc, ir.OpBvs, ir.OpBpl, ir.OpBmi, ir.OpBge, ir.OpBlt, ir.OpBgt, ir.OpBle:
		fmt.Fprintf(b, "\t%s %s\n", condBranchMnemonic[in.Op], labelSym(p, in.Addr.Label))
		return nil

	case ir.OpLoad:
		if in.HasRd {
			fmt.Fprintf(b, "\tmov %s, %s\n", regName(in.Rd), loadSrc(p, in))
		}
		return nil
	case ir.OpStore:
		fmt.Fprintf(b, "\tmov [%s], %s\n", Name64(in.Rd.ID), regName(in.Rs1))
		return nil
	case ir.OpMova:
		fmt.Fprintf(b, "\tlea %s, [%s]\n", Name64(in.Rd.ID), addrSym(p, in.Addr))
		return nil

	case ir.OpAxeRead:
		b.WriteString("\tcall __axe_read\n")
		return nil
	case ir.OpAxeWrite:
		b.WriteString("\tcall __axe_write\n")
		return nil

	case ir.OpDummy:
		return nil
	}
	return lerr.New(lerr.UnencodableInstruction, fmt.Sprintf("no NASM encoding for %s", in.Op))
}

func loadSrc(p *ir.Program, in *ir.Instruction) string {
	if in.Addr != nil {
		return fmt.Sprintf("[%s]", addrSym(p, in.Addr))
	}
	return fmt.Sprintf("[%s]", Name64(in.Rs1.ID))
}

func addrSym(p *ir.Program, a *ir.Address) string {
	if a.IsLabel {
		return labelSym(p, a.Label)
	}
	return fmt.Sprintf("%d", a.Numeric)
}
