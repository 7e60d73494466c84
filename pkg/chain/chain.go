// Package chain models the user-built, ordered list of filter instances.
// Chains are values with copy-on-write semantics: every mutation returns a
// new chain and previously returned snapshots never change.
package chain

import (
	"errors"

	"github.com/google/uuid"

	"github.com/glowkit/filterchain/pkg/catalog"
)

var (
	// ErrFilterNotUsable is returned when appending a filter that lacks a
	// primary image input or output.
	ErrFilterNotUsable = errors.New("filter is not usable in a chain")

	// ErrUnknownParameter is returned when setting a parameter the entry
	// does not carry.
	ErrUnknownParameter = errors.New("entry has no such parameter")
)

// Override is one editable parameter value on a chain entry.
type Override struct {
	Name        string
	DisplayName string
	Value       float64
}

// Entry is one configured filter within a chain. ID is stable across
// reorders and edits; two entries may reference the same filter name.
type Entry struct {
	ID        string
	Name      string
	Enabled   bool
	Overrides []Override
}

// Chain is an ordered sequence of entries. Order is execution order.
type Chain struct {
	entries []Entry
}

// New returns an empty chain.
func New() Chain {
	return Chain{}
}

// clone deep-copies the chain so mutations never alias older snapshots.
func (c Chain) clone() Chain {
	entries := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		e.Overrides = append([]Override(nil), e.Overrides...)
		entries[i] = e
	}
	return Chain{entries: entries}
}

// Len returns the number of entries, enabled or not.
func (c Chain) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in execution order.
func (c Chain) Entries() []Entry {
	return c.clone().entries
}

// Entry looks up an entry by ID.
func (c Chain) Entry(id string) (Entry, bool) {
	for _, e := range c.entries {
		if e.ID == id {
			out := e
			out.Overrides = append([]Override(nil), e.Overrides...)
			return out, true
		}
	}
	return Entry{}, false
}

// Append adds a new enabled entry for the given definition, seeding each
// editable parameter from its preferred default.
func (c Chain) Append(def *catalog.FilterDefinition) (Chain, error) {
	if def == nil || !def.Usable() {
		return c, ErrFilterNotUsable
	}

	entry := Entry{
		ID:      uuid.NewString(),
		Name:    def.Name,
		Enabled: true,
	}
	for _, p := range def.EditableParameters() {
		entry.Overrides = append(entry.Overrides, Override{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Value:       p.PreferredDefault(),
		})
	}

	out := c.clone()
	out.entries = append(out.entries, entry)
	return out, nil
}

// Remove deletes the entry with the given ID, preserving the relative order
// of the rest. Removing an absent ID is a no-op.
func (c Chain) Remove(id string) Chain {
	out := c.clone()
	for i, e := range out.entries {
		if e.ID == id {
			out.entries = append(out.entries[:i], out.entries[i+1:]...)
			return out
		}
	}
	return out
}

// Move reorders the entry with the given ID to toIndex; out-of-range
// targets clamp to the valid range. Moving an absent ID is a no-op.
func (c Chain) Move(id string, toIndex int) Chain {
	out := c.clone()
	from := -1
	for i, e := range out.entries {
		if e.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return out
	}

	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(out.entries) {
		toIndex = len(out.entries) - 1
	}

	entry := out.entries[from]
	out.entries = append(out.entries[:from], out.entries[from+1:]...)

	rest := append([]Entry(nil), out.entries[toIndex:]...)
	out.entries = append(out.entries[:toIndex], entry)
	out.entries = append(out.entries, rest...)
	return out
}

// SetEnabled toggles an entry in place. Absent IDs are a no-op.
func (c Chain) SetEnabled(id string, enabled bool) Chain {
	out := c.clone()
	for i := range out.entries {
		if out.entries[i].ID == id {
			out.entries[i].Enabled = enabled
			break
		}
	}
	return out
}

// SetParameter updates one override value on the identified entry. It never
// falls back to a same-named parameter on a different entry: an absent ID is
// a no-op, and an unknown parameter name on the found entry is an error.
func (c Chain) SetParameter(id, name string, value float64) (Chain, error) {
	out := c.clone()
	for i := range out.entries {
		if out.entries[i].ID != id {
			continue
		}
		for j := range out.entries[i].Overrides {
			if out.entries[i].Overrides[j].Name == name {
				out.entries[i].Overrides[j].Value = value
				return out, nil
			}
		}
		return c, ErrUnknownParameter
	}
	return out, nil
}

// Equal compares two chains entry by entry in order: id, name, enabled, and
// every override value must match. Used to detect no-op state changes that
// should not trigger a re-render.
func (c Chain) Equal(other Chain) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i, a := range c.entries {
		b := other.entries[i]
		if a.ID != b.ID || a.Name != b.Name || a.Enabled != b.Enabled {
			return false
		}
		if len(a.Overrides) != len(b.Overrides) {
			return false
		}
		for j, ov := range a.Overrides {
			if ov != b.Overrides[j] {
				return false
			}
		}
	}
	return true
}
