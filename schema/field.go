package schema

import "fmt"

// SlotSize is the capacity of one storage slot in bytes.
const SlotSize = 32

// Lock pins a field to the position it held in a previously deployed layout.
type Lock struct {
	Slot   int `json:"slot"`
	Offset int `json:"offset"`
}

func (l Lock) String() string {
	return fmt.Sprintf("%d:%d", l.Slot, l.Offset)
}

// Before reports whether l sorts before o in storage order.
func (l Lock) Before(o Lock) bool {
	if l.Slot != o.Slot {
		return l.Slot < o.Slot
	}
	return l.Offset < o.Offset
}

// Field is one member of a record.
type Field struct {
	Lock    *Lock  `json:"lock,omitempty"`
	Name    string `json:"name"`
	Group   string `json:"group,omitempty"`
	Width   int    `json:"width"`
	Dynamic bool   `json:"dynamic,omitempty"`
}

// Scalar returns a packable field of the given width.
func Scalar(name string, width int) Field {
	return Field{Name: name, Width: width}
}

// Dyn returns a dynamic field. The width is kept for reporting only.
func Dyn(name string) Field {
	return Field{Name: name, Width: SlotSize, Dynamic: true}
}

// InGroup returns a copy of f assigned to group g.
func (f Field) InGroup(g string) Field {
	f.Group = g
	return f
}

// LockedAt returns a copy of f locked to slot and offset.
func (f Field) LockedAt(slot, offset int) Field {
	f.Lock = &Lock{Slot: slot, Offset: offset}
	return f
}

// Locked reports whether f carries a lock.
func (f Field) Locked() bool {
	return f.Lock != nil
}

// PackedWidth is the number of slot bytes f consumes when packed.
func (f Field) PackedWidth() int {
	if f.Dynamic {
		return SlotSize
	}
	return f.Width
}

// Clone returns a deep copy of f.
func (f Field) Clone() Field {
	if f.Lock != nil {
		l := *f.Lock
		f.Lock = &l
	}
	return f
}

func (f Field) String() string {
	var s string
	if f.Dynamic {
		s = f.Name + ":dyn"
	} else {
		s = fmt.Sprintf("%s:%d", f.Name, f.Width)
	}
	if f.Group != "" {
		s += "@" + f.Group
	}
	if f.Lock != nil {
		s += "=" + f.Lock.String()
	}
	return s
}
