package layout

import (
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/schema"
)

// Cursor is the packing state between two fields: the open slot index and
// the bytes already used in it.
type Cursor struct {
	Slot int
	Used int
}

// Less orders cursors by storage position.
func (c Cursor) Less(o Cursor) bool {
	if c.Slot != o.Slot {
		return c.Slot < o.Slot
	}
	return c.Used < o.Used
}

// Slots is the number of slots a layout ending at c occupies.
func (c Cursor) Slots() int {
	if c.Used > 0 {
		return c.Slot + 1
	}
	return c.Slot
}

// Advance applies the packing rule for one field and returns the cursor
// after it together with the field's position. ok is false when f is locked
// to a position the cursor has already passed.
func (c Cursor) Advance(f schema.Field) (next Cursor, at Position, ok bool) {
	if f.Lock != nil {
		target := Cursor{Slot: f.Lock.Slot, Used: f.Lock.Offset}
		if target.Less(c) {
			return c, Position{}, false
		}
		if f.Dynamic {
			return Cursor{Slot: target.Slot + 1}, Position{Slot: target.Slot}, true
		}
		return Cursor{Slot: target.Slot, Used: target.Used + f.Width},
			Position{Slot: target.Slot, Offset: target.Used}, true
	}

	if f.Dynamic {
		if c.Used > 0 {
			c = Cursor{Slot: c.Slot + 1}
		}
		return Cursor{Slot: c.Slot + 1}, Position{Slot: c.Slot}, true
	}

	if c.Used > 0 && c.Used+f.Width > schema.SlotSize {
		c = Cursor{Slot: c.Slot + 1}
	}
	return Cursor{Slot: c.Slot, Used: c.Used + f.Width}, Position{Slot: c.Slot, Offset: c.Used}, true
}

// Pack places fields in the given order.
func Pack(fields []schema.Field) (*Layout, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if err := schema.CheckField(errors.PhasePack, f); err != nil {
			return nil, err
		}
		if _, dup := seen[f.Name]; dup {
			return nil, errors.DuplicateName(errors.PhasePack, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	var (
		slots   []Slot
		cur     []Occupant
		curSlot int
		c       Cursor
	)
	// flush closes every slot below upTo; cur belongs to curSlot.
	flush := func(upTo int) {
		for len(slots) < upTo {
			s := Slot{Index: len(slots)}
			if s.Index == curSlot {
				s.Occupants = cur
				cur = nil
			}
			slots = append(slots, s)
		}
	}

	for _, f := range fields {
		next, at, ok := c.Advance(f)
		if !ok {
			return nil, errors.New(errors.PhasePack, errors.KindUnsatisfiable).
				Fields(f.Name).
				Value(*f.Lock).
				Detail("lock %s already passed, packing reached %d:%d", f.Lock, c.Slot, c.Used).
				Build()
		}
		flush(at.Slot)
		curSlot = at.Slot

		occ := Occupant{Name: f.Name, Offset: at.Offset, Width: f.Width}
		if f.Dynamic {
			occ.Width = schema.SlotSize
			occ.Dynamic = true
		}
		cur = append(cur, occ)
		c = next
	}
	flush(c.Slots())

	return &Layout{Slots: slots}, nil
}

// PackSchema packs a schema in declaration order.
func PackSchema(s *schema.Schema) (*Layout, error) {
	if s == nil || s.Len() == 0 {
		return nil, errors.EmptySchema(errors.PhasePack)
	}
	return Pack(s.Fields())
}

// Trace returns the cursor after packing fields, or ok=false if a lock is passed.
// It applies the same rule as Pack without building slots.
func Trace(start Cursor, fields []schema.Field) (Cursor, bool) {
	c := start
	for _, f := range fields {
		var ok bool
		c, _, ok = c.Advance(f)
		if !ok {
			return c, false
		}
	}
	return c, true
}
