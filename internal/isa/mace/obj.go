package mace

import (
	"bytes"
	"encoding/binary"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// objMagic is the four-byte MACE object header (original_source/mace/machine.c),
// stored big-endian; the instruction stream that follows a 16-byte reserved
// block is little-endian 32-bit words (spec.md §4.8/§6).
var objMagic = [4]byte{'L', 'F', 'C', 'M'}

var opcodeByte = map[ir.Opcode]byte{
	ir.OpNop: 0x00, ir.OpHalt: 0x01, ir.OpRet: 0x02, ir.OpJsr: 0x03,
	ir.OpAdd: 0x10, ir.OpSub: 0x11, ir.OpMul: 0x12, ir.OpDiv: 0x13,
	ir.OpAndB: 0x14, ir.OpOrB: 0x15, ir.OpXorB: 0x16,
	ir.OpShl: 0x17, ir.OpShr: 0x18, ir.OpRotl: 0x19, ir.OpRotr: 0x1A, ir.OpNeg: 0x1B,
	ir.OpAddI: 0x20, ir.OpSubI: 0x21, ir.OpMulI: 0x22,
	ir.OpAndBI: 0x24, ir.OpOrBI: 0x25, ir.OpXorBI: 0x26,
	ir.OpShlI: 0x27, ir.OpShrI: 0x28, ir.OpRotlI: 0x29, ir.OpRotrI: 0x2A,
	ir.OpSeq: 0x30, ir.OpSne: 0x31, ir.OpSlt: 0x32, ir.OpSle: 0x33, ir.OpSgt: 0x34, ir.OpSge: 0x35,
	ir.OpBt: 0x40, ir.OpBf: 0x41, ir.OpBhi: 0x42, ir.OpBls: 0x43, ir.OpBcc: 0x44, ir.OpBcs: 0x45,
	ir.OpBne: 0x46, ir.OpBeq: 0x47, ir.OpBvc: 0x48, ir.OpBvs: 0x49, ir.OpBpl: 0x4A, ir.OpBmi: 0x4B,
	ir.OpBge: 0x4C, ir.OpBlt: 0x4D, ir.OpBgt: 0x4E, ir.OpBle: 0x4F,
	ir.OpLoad: 0x50, ir.OpStore: 0x51, ir.OpMova: 0x52,
	ir.OpAxeRead: 0x60, ir.OpAxeWrite: 0x61,
}

// WriteObject assembles p directly to the MACE object format (spec.md §6
// --emit-object): header, reserved block, then one or two little-endian
// 32-bit words per instruction (a second word carries an immediate operand
// or a branch's resolved word offset; every label must already be
// attached, i.e. this is called after lowering, never before).
func WriteObject(p *ir.Program) ([]byte, error) {
	var body bytes.Buffer
	offsets := map[ir.LabelID]uint32{}
	wordIdx := uint32(0)

	instrs := p.Instructions()
	for _, in := range instrs {
		if in.HasLabel() {
			offsets[in.Label] = wordIdx
		}
		if in.MC.Dummy {
			continue
		}
		wordIdx += wordsFor(in)
	}

	wordIdx = 0
	for _, in := range instrs {
		if in.MC.Dummy {
			continue
		}
		op, ok := opcodeByte[in.Op]
		if !ok {
			return nil, lerr.New(lerr.UnencodableInstruction, "no MACE object encoding for "+in.Op.String())
		}
		w := uint32(op)<<24 | uint32(byte(in.Rd.ID))<<16 | uint32(byte(in.Rs1.ID))<<8 | uint32(byte(in.Rs2.ID))
		binary.Write(&body, binary.LittleEndian, w)
		wordIdx++

		switch {
		case in.Imm != nil:
			binary.Write(&body, binary.LittleEndian, uint32(*in.Imm))
			wordIdx++
		case in.Addr != nil:
			target := uint32(in.Addr.Numeric)
			if in.Addr.IsLabel {
				target = offsets[in.Addr.Label]
			}
			binary.Write(&body, binary.LittleEndian, target)
			wordIdx++
		}
	}

	var out bytes.Buffer
	out.Write(objMagic[:])
	out.Write(make([]byte, 16))
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func wordsFor(in *ir.Instruction) uint32 {
	if in.Imm != nil || in.Addr != nil {
		return 2
	}
	return 1
}
