// Package regalloc implements the linear-scan register allocator and spill
// materializer of spec.md §4.6/§4.7.
package regalloc

import (
	"sort"

	"github.com/danielecattaneo/acse-multitarget/internal/cfg"
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// Spilled marks an Interval.Assigned that did not receive a machine register.
const Spilled = -1

// Interval is a live interval over the graph's linear instruction numbering
// (spec.md §4.6 GLOSSARY "Live interval").
type Interval struct {
	Var       cfg.VarID
	Start, End int
	Whitelist []int // ordered candidate machine registers
	Assigned  int
}

func (iv *Interval) Spilled() bool { return iv.Assigned == Spilled }

func (iv *Interval) overlaps(o *Interval) bool {
	return iv.Start <= o.End && o.Start <= iv.End
}

// BuildIntervals constructs one live interval per cfg-var, excluding the
// zero register and psw (spec.md §4.6). g must already have liveness
// computed and positions assigned.
func BuildIntervals(g *cfg.Graph) []*Interval {
	spans := map[cfg.VarID]*Interval{}
	touch := func(v cfg.VarID, pos int) {
		if v == cfg.Psw || v == cfg.VarID(ir.ZeroRegID) {
			return
		}
		iv, ok := spans[v]
		if !ok {
			iv = &Interval{Var: v, Start: pos, End: pos, Assigned: Spilled}
			spans[v] = iv
			return
		}
		if pos < iv.Start {
			iv.Start = pos
		}
		if pos > iv.End {
			iv.End = pos
		}
	}

	for _, n := range g.AllNodes() {
		for v := range n.In {
			touch(v, n.Pos)
		}
		for v := range n.Out {
			touch(v, n.Pos)
		}
		for _, v := range n.Defs {
			touch(v, n.Pos)
		}
	}

	out := make([]*Interval, 0, len(spans))
	for _, iv := range spans {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// InitConstraints seeds every interval's whitelist from its cfg-var's
// observed whitelist intersected with the allocatable register universe,
// then propagates pairwise constraints per spec.md §4.6:
//
//   - intervals that are simultaneously live cannot share a register
//     (subtract one's whitelist from the other's);
//   - a use-that-ends-exactly-where-another-begins is a handoff hint, not a
//     true conflict (reorder the ending interval's whitelist to put the
//     starting interval's first candidate first).
func InitConstraints(g *cfg.Graph, intervals []*Interval, allocatable []int) error {
	for _, iv := range intervals {
		v := g.Var(iv.Var)
		if len(v.Whitelist) == 0 {
			iv.Whitelist = append([]int(nil), allocatable...)
		} else {
			iv.Whitelist = ir.IntersectWhitelist(v.Whitelist, allocatable)
		}
	}

	for _, i := range intervals {
		for _, j := range intervals {
			if i == j {
				continue
			}
			if !i.overlaps(j) {
				continue
			}
			if j.Start == i.End {
				preferFirst(i, freeEndReg(j))
				continue
			}
			// Only a genuine pre-coloring (j pinned to one specific machine
			// register) is propagated as an exclusion here; two intervals
			// that are merely both unconstrained (or both span the same
			// wide candidate pool) are left for the main allocation loop's
			// active/free-set bookkeeping to keep disjoint. Subtracting a
			// same-size candidate pool unconditionally would empty out
			// every ordinary overlapping pair, which is not what spec.md's
			// "they cannot share a register" is describing (see DESIGN.md).
			// An interval already pinned to a single machine register is left
			// alone here, even against another pinned interval: two adjacent
			// precolored divisions both pinned to edx are not a whitelist
			// conflict to resolve at this stage, they are for the main
			// allocate/spill loop to handle.
			if len(j.Whitelist) == 1 && len(i.Whitelist) != 1 {
				i.Whitelist = subtract(i.Whitelist, j.Whitelist)
			}
		}
		if len(i.Whitelist) == 0 {
			return lerr.New(lerr.RegisterAllocError, "empty machine-register whitelist for interval")
		}
	}
	return nil
}

// freeEndReg returns j's most-preferred candidate register, or -1 if j has
// none. Before assignment, intervals have no Assigned register yet;
// InitConstraints therefore uses this as a stand-in hint for the register j
// will take (reorder toward j's most-preferred candidate).
func freeEndReg(j *Interval) int {
	if len(j.Whitelist) > 0 {
		return j.Whitelist[0]
	}
	return -1
}

func preferFirst(iv *Interval, reg int) {
	if reg < 0 {
		return
	}
	idx := -1
	for i, r := range iv.Whitelist {
		if r == reg {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	wl := iv.Whitelist
	copy(wl[1:idx+1], wl[0:idx])
	wl[0] = reg
}

func subtract(a, b []int) []int {
	bad := make(map[int]bool, len(b))
	for _, x := range b {
		bad[x] = true
	}
	out := a[:0:0]
	for _, x := range a {
		if !bad[x] {
			out = append(out, x)
		}
	}
	return out
}
