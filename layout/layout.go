package layout

import (
	"github.com/wippyai/slotpack/schema"
)

// Occupant is one field placed in a slot.
type Occupant struct {
	Name    string `json:"name"`
	Offset  int    `json:"offset"`
	Width   int    `json:"width"`
	Dynamic bool   `json:"dynamic,omitempty"`
}

// Slot is one 32-byte storage unit.
type Slot struct {
	Occupants []Occupant `json:"occupants"`
	Index     int        `json:"index"`
}

// Used returns the number of bytes held by occupants.
func (s Slot) Used() int {
	n := 0
	for _, o := range s.Occupants {
		n += o.Width
	}
	return n
}

// Free returns the unused bytes of the slot.
func (s Slot) Free() int {
	return schema.SlotSize - s.Used()
}

// Dynamic reports whether the slot holds a dynamic field head.
func (s Slot) Dynamic() bool {
	return len(s.Occupants) == 1 && s.Occupants[0].Dynamic
}

// Position is the storage location of a field.
type Position struct {
	Slot   int `json:"slot"`
	Offset int `json:"offset"`
}

// Layout is the slot assignment for one field order. Layouts are values:
// a different order produces a new Layout.
type Layout struct {
	Slots []Slot `json:"slots"`
}

// SlotCount returns the number of slots, including padding slots.
func (l *Layout) SlotCount() int {
	return len(l.Slots)
}

// Order returns field names in packing order.
func (l *Layout) Order() []string {
	var names []string
	for _, s := range l.Slots {
		for _, o := range s.Occupants {
			names = append(names, o.Name)
		}
	}
	return names
}

// Locate returns the position of a field.
func (l *Layout) Locate(name string) (Position, bool) {
	for _, s := range l.Slots {
		for _, o := range s.Occupants {
			if o.Name == name {
				return Position{Slot: s.Index, Offset: o.Offset}, true
			}
		}
	}
	return Position{}, false
}

// Positions maps every field to its position.
func (l *Layout) Positions() map[string]Position {
	out := make(map[string]Position)
	for _, s := range l.Slots {
		for _, o := range s.Occupants {
			out[o.Name] = Position{Slot: s.Index, Offset: o.Offset}
		}
	}
	return out
}

// SlotOf maps every field to its slot index.
func (l *Layout) SlotOf() map[string]int {
	out := make(map[string]int)
	for _, s := range l.Slots {
		for _, o := range s.Occupants {
			out[o.Name] = s.Index
		}
	}
	return out
}

// Equal reports whether two layouts place every field identically.
func (l *Layout) Equal(o *Layout) bool {
	if len(l.Slots) != len(o.Slots) {
		return false
	}
	for i := range l.Slots {
		a, b := l.Slots[i], o.Slots[i]
		if a.Index != b.Index || len(a.Occupants) != len(b.Occupants) {
			return false
		}
		for j := range a.Occupants {
			if a.Occupants[j] != b.Occupants[j] {
				return false
			}
		}
	}
	return true
}
