package mace

import (
	"fmt"
	"strings"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

var mnemonic = map[ir.Opcode]string{
	ir.OpAdd: "ADD", ir.OpSub: "SUB", ir.OpMul: "MUL", ir.OpDiv: "DIV",
	ir.OpAndB: "AND", ir.OpOrB: "OR", ir.OpXorB: "XOR",
	ir.OpShl: "SHL", ir.OpShr: "SHR", ir.OpRotl: "ROL", ir.OpRotr: "ROR",
	ir.OpNeg: "NEG",
	ir.OpAddI: "ADDI", ir.OpSubI: "SUBI", ir.OpMulI: "MULI",
	ir.OpAndBI: "ANDI", ir.OpOrBI: "ORI", ir.OpXorBI: "XORI",
	ir.OpShlI: "SHLI", ir.OpShrI: "SHRI", ir.OpRotlI: "ROLI", ir.OpRotrI: "RORI",
	ir.OpSeq: "SEQ", ir.OpSne: "SNE", ir.OpSlt: "SLT", ir.OpSle: "SLE", ir.OpSgt: "SGT", ir.OpSge: "SGE",
	ir.OpBhi: "BHI", ir.OpBls: "BLS", ir.OpBcc: "BCC", ir.OpBcs: "BCS",
	ir.OpBne: "BNE", ir.OpBeq: "BEQ", ir.OpBvc: "BVC", ir.OpBvs: "BVS",
	ir.OpBpl: "BPL", ir.OpBmi: "BMI", ir.OpBge: "BGE", ir.OpBlt: "BLT",
	ir.OpBgt: "BGT", ir.OpBle: "BLE", ir.OpBt: "BT", ir.OpBf: "BF",
	ir.OpLoad: "LOAD", ir.OpStore: "STORE", ir.OpMova: "MOVA",
	ir.OpAxeRead: "READ", ir.OpAxeWrite: "WRITE",
	ir.OpNop: "NOP", ir.OpHalt: "HALT", ir.OpRet: "RET", ir.OpJsr: "JSR",
}

// Print renders p as MACE assembly text (spec.md §4.8/§6): uppercase
// mnemonics, `.WORD`/`.SPACE` data directives, parenthesized indirect
// operands (original_source/mace/machine.c's textual encoding).
func Print(p *ir.Program) (string, error) {
	var b strings.Builder
	b.WriteString(".data\n")
	for _, v := range p.Variables {
		if v.IsArray {
			fmt.Fprintf(&b, "%s: .SPACE %d\n", labelSym(p, v.Label), v.ArraySize*4)
		} else {
			fmt.Fprintf(&b, "%s: .WORD %d\n", labelSym(p, v.Label), v.Initializer)
		}
	}
	for _, d := range p.Data {
		if d.IsSpace {
			fmt.Fprintf(&b, "%s: .SPACE %d\n", labelSym(p, d.Label), d.Value)
		} else {
			fmt.Fprintf(&b, "%s: .WORD %d\n", labelSym(p, d.Label), d.Value)
		}
	}

	b.WriteString("\n.text\n")
	for _, in := range p.Instructions() {
		if in.HasLabel() {
			fmt.Fprintf(&b, "%s:\n", labelSym(p, in.Label))
		}
		if in.MC.Dummy {
			continue
		}
		line, err := printInstr(p, in)
		if err != nil {
			return "", err
		}
		if line != "" {
			b.WriteString("\t" + line + "\n")
		}
	}
	return b.String(), nil
}

func labelSym(p *ir.Program, l ir.LabelID) string {
	if n := p.Labels.Name(l); n != "" {
		return n
	}
	return fmt.Sprintf("L%d", p.Labels.ID(l))
}

func reg(r ir.Reg) string {
	if r.Indirect {
		return fmt.Sprintf("(R%d)", r.ID)
	}
	return fmt.Sprintf("R%d", r.ID)
}

func printInstr(p *ir.Program, in *ir.Instruction) (string, error) {
	switch in.Op {
	case ir.OpNop, ir.OpBf:
		return "", nil
	case ir.OpHalt, ir.OpRet:
		return mnemonic[in.Op], nil
	case ir.OpJsr:
		return fmt.Sprintf("JSR %s", addrSym(p, in.Addr)), nil
	case ir.OpBt, ir.OpBhi, ir.OpBls, ir.OpBcc, ir.OpBcs, ir.OpBne, ir.OpBeq,
		ir.OpBvc, ir.OpBvs, ir.OpBpl, ir.OpBmi, ir.OpBge, ir.OpBlt, ir.OpBgt, ir.OpBle:
		return fmt.Sprintf("%s %s", mnemonic[in.Op], addrSym(p, in.Addr)), nil

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpAndB, ir.OpOrB, ir.OpXorB,
		ir.OpShl, ir.OpShr, ir.OpRotl, ir.OpRotr:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic[in.Op], reg(in.Rd), reg(in.Rs1), reg(in.Rs2)), nil
	case ir.OpNeg:
		return fmt.Sprintf("NEG %s, %s", reg(in.Rd), reg(in.Rs1)), nil
	case ir.OpAddI, ir.OpSubI, ir.OpMulI, ir.OpAndBI, ir.OpOrBI, ir.OpXorBI,
		ir.OpShlI, ir.OpShrI, ir.OpRotlI, ir.OpRotrI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic[in.Op], reg(in.Rd), reg(in.Rs1), *in.Imm), nil

	case ir.OpSeq, ir.OpSne, ir.OpSlt, ir.OpSle, ir.OpSgt, ir.OpSge:
		return fmt.Sprintf("%s %s", mnemonic[in.Op], reg(in.Rd)), nil

	case ir.OpLoad:
		if in.Addr != nil {
			return fmt.Sprintf("LOAD %s, %s", reg(in.Rd), addrSym(p, in.Addr)), nil
		}
		return fmt.Sprintf("LOAD %s, %s", reg(in.Rd), reg(in.Rs1)), nil
	case ir.OpStore:
		return fmt.Sprintf("STORE %s, %s", reg(in.Rd), reg(in.Rs1)), nil
	case ir.OpMova:
		return fmt.Sprintf("MOVA %s, %s", reg(in.Rd), addrSym(p, in.Addr)), nil

	case ir.OpAxeRead:
		return fmt.Sprintf("READ %s", reg(in.Rd)), nil
	case ir.OpAxeWrite:
		return fmt.Sprintf("WRITE %s", reg(in.Rd)), nil

	case ir.OpDummy:
		return "", nil
	}
	return "", lerr.New(lerr.UnencodableInstruction, fmt.Sprintf("no MACE encoding for %s", in.Op))
}

func addrSym(p *ir.Program, a *ir.Address) string {
	if a.IsLabel {
		return labelSym(p, a.Label)
	}
	return fmt.Sprintf("%d", a.Numeric)
}
