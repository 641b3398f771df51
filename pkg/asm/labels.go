package asm

import (
	"fmt"
	"strings"
)

// LabelEntry pairs a label name with the byte address of the
// instruction it annotates. Once inserted in a table the address never
// changes.
type LabelEntry struct {
	Name    string
	Address uint32
}

// LabelTable maps label names to instruction addresses. Entries are
// kept in insertion order and names are pairwise distinct. Lookups are
// a linear scan.
//
// The table is populated during pass 1 and read-only during pass 2. It
// is not goroutine safe; a single goroutine should manage it.
type LabelTable struct {
	entries []LabelEntry
}

// NewLabelTable creates an empty label table with room for one entry.
func NewLabelTable() *LabelTable {
	return &LabelTable{entries: make([]LabelEntry, 0, 1)}
}

// Count returns the number of labels in the table.
func (t *LabelTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Capacity returns the allocated storage of the table. The invariant
// Capacity() >= Count() holds after every operation.
func (t *LabelTable) Capacity() int {
	if t == nil {
		return 0
	}
	return cap(t.entries)
}

// Find returns the address associated with the label and whether the
// label is present. A nil table contains nothing.
func (t *LabelTable) Find(name string) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	for _, entry := range t.entries {
		if entry.Name == name {
			return entry.Address, true
		}
	}
	return 0, false
}

// Add inserts a new label. If the label is already present the table
// is left unchanged and Add returns ErrDuplicateLabel, a non-fatal
// condition: the caller reports it and assembly continues. The table
// grows as needed.
func (t *LabelTable) Add(name string, address uint32) error {
	if t == nil {
		return ErrNoTable
	}
	if _, found := t.Find(name); found {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, name)
	}
	if len(t.entries) == cap(t.entries) {
		// 2*(count+1) always leaves room for the insert
		if err := t.Resize(2 * (len(t.entries) + 1)); err != nil {
			return err
		}
	}
	t.entries = append(t.entries, LabelEntry{Name: name, Address: address})
	return nil
}

// Resize replaces the backing store with one of the given capacity,
// keeping the first min(Count(), newCapacity) entries. Shrinking below
// the current population truncates the table; that is a documented
// consequence, not an error.
func (t *LabelTable) Resize(newCapacity int) error {
	if t == nil {
		return ErrNoTable
	}
	if newCapacity < 0 {
		return fmt.Errorf("%w: negative capacity %d", ErrOutOfRange, newCapacity)
	}
	keep := len(t.entries)
	if keep > newCapacity {
		keep = newCapacity
	}
	entries := make([]LabelEntry, keep, newCapacity)
	copy(entries, t.entries[:keep])
	t.entries = entries
	return nil
}

// Entries returns a copy of the table contents in insertion order.
func (t *LabelTable) Entries() []LabelEntry {
	if t == nil {
		return nil
	}
	entries := make([]LabelEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// String generates a deterministic listing of the table, one label per
// line in insertion order. Diagnostics only; encoding never uses it.
func (t *LabelTable) String() string {
	if t == nil {
		return "<no label table>"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d labels in the table:\n", len(t.entries))
	for _, entry := range t.entries {
		fmt.Fprintf(&sb, "  %s: %d\n", entry.Name, entry.Address)
	}
	return sb.String()
}
