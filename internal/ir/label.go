package ir

import (
	"regexp"
	"strconv"

	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// LabelID is a handle into a LabelManager. Two distinct handles may be
// aliased to the same underlying label (spec.md §3): always resolve
// through the manager rather than comparing handles directly.
type LabelID int

const noLabel LabelID = -1

// LabelManager allocates and disambiguates labels (spec.md §4.1). Labels
// are reserved, optionally named, and attached to an instruction; two
// labels attached before any instruction exists alias into one.
type LabelManager struct {
	parent   []int // union-find parent by handle index
	name     []string
	ident    []int // dense public identifier; 0 is never assigned (reserved sentinel)
	attached []nodeID
	pending  LabelID
	nextID   int
	usedName map[string]bool
}

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

func NewLabelManager() *LabelManager {
	return &LabelManager{pending: noLabel, nextID: 1, usedName: map[string]bool{}}
}

// Reserve allocates a new label in the "reserved" state (spec.md §3):
// it has an identifier but is not attached to any instruction yet.
func (m *LabelManager) Reserve() LabelID {
	idx := len(m.parent)
	m.parent = append(m.parent, idx)
	m.name = append(m.name, "")
	m.ident = append(m.ident, m.nextID)
	m.nextID++
	m.attached = append(m.attached, nilNode)
	return LabelID(idx)
}

func (m *LabelManager) find(h LabelID) LabelID {
	i := int(h)
	for m.parent[i] != i {
		m.parent[i] = m.parent[m.parent[i]]
		i = m.parent[i]
	}
	return LabelID(i)
}

// winner picks which of two roots survives an alias per spec.md §3: a
// name wins over nameless; on tie, the smaller identifier wins.
func (m *LabelManager) winner(a, b LabelID) (win, lose LabelID) {
	an, bn := m.name[a] != "", m.name[b] != ""
	switch {
	case an && !bn:
		return a, b
	case bn && !an:
		return b, a
	default:
		if m.ident[a] <= m.ident[b] {
			return a, b
		}
		return b, a
	}
}

func (m *LabelManager) alias(a, b LabelID) LabelID {
	a, b = m.find(a), m.find(b)
	if a == b {
		return a
	}
	win, lose := m.winner(a, b)
	m.parent[lose] = int(win)
	if m.attached[win] == nilNode {
		m.attached[win] = m.attached[lose]
	}
	return win
}

// Attach enqueues label as pending on the next instruction to be appended,
// aliasing it with any label already pending (spec.md §4.1/§3).
func (m *LabelManager) Attach(l LabelID) LabelID {
	root := m.find(l)
	if m.pending == noLabel {
		m.pending = root
		return root
	}
	m.pending = m.alias(m.pending, root)
	return m.pending
}

// FlushPending binds the pending label (if any) to node and returns it.
func (m *LabelManager) FlushPending(n nodeID) (LabelID, bool) {
	if m.pending == noLabel {
		return noLabel, false
	}
	h := m.pending
	m.attached[h] = n
	m.pending = noLabel
	return h, true
}

func (m *LabelManager) HasPending() bool { return m.pending != noLabel }

// SetName sanitizes name to [A-Za-z0-9_] and disambiguates it by appending
// _N until unique across the manager (spec.md §4.1).
func (m *LabelManager) SetName(l LabelID, name string) {
	root := m.find(l)
	clean := sanitizeRe.ReplaceAllString(name, "_")
	if clean == "" {
		clean = "L"
	}
	candidate := clean
	for n := 1; m.usedName[candidate]; n++ {
		candidate = clean + "_" + strconv.Itoa(n)
	}
	m.usedName[candidate] = true
	m.name[root] = candidate
}

func (m *LabelManager) ID(l LabelID) int     { return m.ident[m.find(l)] }
func (m *LabelManager) Name(l LabelID) string { return m.name[m.find(l)] }

// AttachedNode returns the instruction node this label is bound to, if any.
func (m *LabelManager) AttachedNode(l LabelID) (nodeID, bool) {
	n := m.attached[m.find(l)]
	return n, n != nilNode
}

// Equal compares labels by identifier (spec.md §4.1: "Label equality is by identifier").
func (m *LabelManager) Equal(a, b LabelID) bool { return m.find(a) == m.find(b) }

// Validate checks invariant: every label id is unique in (id,name) terms.
// Exposed for testing the testable property in spec.md §8 (Label uniqueness).
func (m *LabelManager) Validate() error {
	seen := map[int]string{}
	for i := range m.parent {
		root := m.find(LabelID(i))
		id := m.ident[root]
		nm := m.name[root]
		if prev, ok := seen[id]; ok && prev != nm {
			return lerr.New(lerr.InvalidLabelManager, "label id reused with differing name")
		}
		seen[id] = nm
	}
	return nil
}
