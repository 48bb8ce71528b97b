package mace

// MACE has a flat bank of 16 general-purpose registers, R0 pinned to the
// allocator/IR's zero register (ir.ZeroRegID); original_source/mace/machine.c.
const numRegisters = 16

// Scratch registers are reserved for the spill materializer, same sizing
// rule as the amd64 package (3 == max register operands per instruction).
var Scratch = []int{13, 14, 15}

// Allocatable excludes the zero register and the spill scratch set.
func Allocatable() []int {
	reserved := map[int]bool{0: true}
	for _, r := range Scratch {
		reserved[r] = true
	}
	var out []int
	for r := 1; r < numRegisters; r++ {
		if !reserved[r] {
			out = append(out, r)
		}
	}
	return out
}
