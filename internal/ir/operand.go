package ir

// RegType is the inferred type of a register operand (spec.md §3). The
// pointer-ness is a bit on the type, matching the original's wart of
// folding "is this a pointer" into the type tag rather than a separate
// IR cast instruction (spec.md §9 Design Notes).
type RegType int

const (
	TypeInferred RegType = iota
	TypeInteger
	TypeIntegerPtr
)

// Max implements the §4.3 type-inference join: integer-ptr > integer >
// inferred.
func (t RegType) Max(o RegType) RegType {
	if t > o {
		return t
	}
	return o
}

func (t RegType) IsPointer() bool { return t == TypeIntegerPtr }

// StripPointer returns the non-pointer version of t, used when a register's
// indirect use means its pointed-to value (not the address) flows forward.
func (t RegType) StripPointer() RegType {
	if t == TypeIntegerPtr {
		return TypeInteger
	}
	return t
}

// ZeroRegID is the always-reads-0/discards-writes register id (spec.md §3).
const ZeroRegID = 0

// Reg is a register operand: a virtual (or, post-allocation, machine)
// register id, the indirect bit, its inferred type, and an ordered
// machine-register whitelist used by the allocator (spec.md §3, §4.6).
type Reg struct {
	ID          int
	Indirect    bool
	Type        RegType
	MCWhitelist []int // ordered; empty == "any machine register"
}

func R(id int) Reg { return Reg{ID: id} }

func (r Reg) IsZero() bool { return r.ID == ZeroRegID }

func (r Reg) Indirected() Reg {
	r2 := r
	r2.Indirect = true
	return r2
}

func (r Reg) WithType(t RegType) Reg {
	r2 := r
	r2.Type = t
	return r2
}

func (r Reg) WithWhitelist(wl []int) Reg {
	r2 := r
	r2.MCWhitelist = append([]int(nil), wl...)
	return r2
}

// IntersectWhitelist intersects two ordered whitelists, preserving a's
// relative order (spec.md GLOSSARY: "Whitelist ... intersection is used
// when operands are merged").
func IntersectWhitelist(a, b []int) []int {
	if len(a) == 0 {
		return append([]int(nil), b...)
	}
	if len(b) == 0 {
		return append([]int(nil), a...)
	}
	set := make(map[int]bool, len(b))
	for _, x := range b {
		set[x] = true
	}
	var out []int
	for _, x := range a {
		if set[x] {
			out = append(out, x)
		}
	}
	return out
}

// Address is either label-typed or a bare numeric address (spec.md §3).
type Address struct {
	IsLabel bool
	Label   LabelID // valid when IsLabel
	Numeric int32   // valid otherwise
}

func LabelAddr(l LabelID) Address { return Address{IsLabel: true, Label: l} }
func NumericAddr(n int32) Address { return Address{Numeric: n} }

// MCFlags are machine-code flags on an instruction that do not affect its
// IR semantics but matter to later passes. Currently only Dummy (spec.md
// §3): a definition inserted purely to tell the allocator a register is
// clobbered; it is never emitted to the output assembly.
type MCFlags struct {
	Dummy bool
}
