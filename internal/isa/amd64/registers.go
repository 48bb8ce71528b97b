// Package amd64 implements the x86-64/NASM target of spec.md §4.5 step
// list and §4.8: IR lowering to a two-address, C-ABI-respecting subset,
// allocation pre-coloring constraints, and the NASM assembly printer.
//
// Grounded on backend/isa/amd64/{machine.go,lower_mem.go} for the overall
// per-opcode lowering-switch shape and on
// original_source/acse/amd64/axe_amd64_transform.c +
// axe_amd64_asm_print.c for the exact x86-64 semantics (two-address
// rewriting, signed-division sequence, register-name-by-operand-type
// printing).
package amd64

// Machine register ids, matching the System-V general-purpose register
// encoding order (spec.md §4.8 "standard System-V prologue").
const (
	RAX = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var regName64 = [...]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
var regName32 = [...]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi", "r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"}
var regName8 = [...]string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil", "r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"}

// Scratch registers reserved for the spill materializer: not allocatable,
// size equal to the max register operands per instruction (3, spec.md §4.7).
var Scratch = []int{R11, R10, R9}

// CalleeSaved per the System-V ABI; the prologue/epilogue save/restore these.
var CalleeSaved = []int{RBX, R12, R13, R14, R15}

// CallerSaved are clobbered by a C call; §4.5 step 3 marks them dummy-defined
// around axe_read/axe_write.
var CallerSaved = []int{RAX, RCX, RDX, RSI, RDI, R8, R9, R10, R11}

const (
	ReturnValueReg = RAX
	FirstArgReg    = RDI
	ShiftCountReg  = RCX
	AccumulatorReg = RAX
	EdxReg         = RDX
)

// Allocatable is every register minus RSP/RBP (frame bookkeeping) and the
// spill scratch set.
func Allocatable() []int {
	reserved := map[int]bool{RSP: true, RBP: true}
	for _, r := range Scratch {
		reserved[r] = true
	}
	var out []int
	for r := 0; r <= R15; r++ {
		if !reserved[r] {
			out = append(out, r)
		}
	}
	return out
}

func Name64(r int) string { return regName64[r] }
func Name32(r int) string { return regName32[r] }
func Name8(r int) string  { return regName8[r] }
