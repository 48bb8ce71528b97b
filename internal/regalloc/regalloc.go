package regalloc

import (
	"sort"

	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// Result is the outcome of Allocate: every interval's final Assigned field
// (a machine register id, or Spilled).
type Result struct {
	Intervals []*Interval
}

// Allocate runs the linear-scan main loop of spec.md §4.6: sweep intervals
// sorted by start, maintaining an active set sorted by end, expiring,
// allocating from each interval's whitelist, and spilling by stealing from
// the active/current interval with the latest end when none is free.
func Allocate(intervals []*Interval) (*Result, error) {
	sorted := append([]*Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	free := map[int]bool{}
	for _, iv := range sorted {
		for _, r := range iv.Whitelist {
			free[r] = true // union of every whitelist: the allocatable universe
		}
	}
	// All candidates start free; occupied ones are removed as we assign.
	occupied := map[int]bool{}

	var active []*Interval // kept sorted by End ascending

	for _, cur := range sorted {
		// 1. Expire.
		var stillActive []*Interval
		for _, a := range active {
			if a.End < cur.Start {
				delete(occupied, a.Assigned)
				continue
			}
			if a.End == cur.Start {
				preferFirst(cur, a.Assigned)
			}
			stillActive = append(stillActive, a)
		}
		active = stillActive

		// 2. Allocate: first free candidate in cur's whitelist.
		reg, ok := firstFree(cur.Whitelist, occupied)
		if ok {
			cur.Assigned = reg
			occupied[reg] = true
			active = insertByEnd(active, cur)
			continue
		}

		// 3. Spill: choose the interval (active ∪ {cur}) with the latest end.
		worst := cur
		worstIsCur := true
		for _, a := range active {
			if a.End > worst.End {
				worst = a
				worstIsCur = false
			}
		}

		if !worstIsCur && contains(cur.Whitelist, worst.Assigned) {
			// Steal: worst becomes spilled, cur takes its register.
			stolen := worst.Assigned
			worst.Assigned = Spilled
			active = removeInterval(active, worst)
			cur.Assigned = stolen
			active = insertByEnd(active, cur)
		} else {
			cur.Assigned = Spilled
		}
	}

	for _, iv := range sorted {
		if iv.Assigned == Spilled && len(iv.Whitelist) == 0 {
			return nil, lerr.New(lerr.RegisterAllocError, "unconstrained interval")
		}
	}
	return &Result{Intervals: sorted}, nil
}

func firstFree(whitelist []int, occupied map[int]bool) (int, bool) {
	for _, r := range whitelist {
		if !occupied[r] {
			return r, true
		}
	}
	return 0, false
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func insertByEnd(active []*Interval, iv *Interval) []*Interval {
	i := sort.Search(len(active), func(i int) bool { return active[i].End >= iv.End })
	active = append(active, nil)
	copy(active[i+1:], active[i:])
	active[i] = iv
	return active
}

func removeInterval(active []*Interval, iv *Interval) []*Interval {
	out := active[:0]
	for _, a := range active {
		if a != iv {
			out = append(out, a)
		}
	}
	return out
}
