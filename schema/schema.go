package schema

import (
	"sort"

	"github.com/wippyai/slotpack/errors"
)

// Schema is an immutable, validated record description.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New validates fields and returns a Schema in declaration order.
func New(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.EmptySchema(errors.PhaseSchema)
	}

	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if err := CheckField(errors.PhaseSchema, f); err != nil {
			return nil, err
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, errors.DuplicateName(errors.PhaseSchema, f.Name)
		}
		s.index[f.Name] = i
		s.fields[i] = f.Clone()
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// CheckField validates a single field independent of its neighbours.
func CheckField(phase errors.Phase, f Field) error {
	if f.Name == "" {
		return errors.New(phase, errors.KindInvalidField).
			Detail("field name must not be empty").
			Build()
	}
	if !f.Dynamic && (f.Width < 1 || f.Width > SlotSize) {
		return errors.InvalidField(phase, f.Name, f.Width)
	}
	if f.Lock == nil {
		return nil
	}
	l := *f.Lock
	switch {
	case l.Slot < 0 || l.Offset < 0:
		return errors.New(phase, errors.KindInvalidField).
			Fields(f.Name).
			Value(l).
			Detail("negative lock position %s", l).
			Build()
	case f.Dynamic && l.Offset != 0:
		return errors.New(phase, errors.KindInvalidField).
			Fields(f.Name).
			Value(l).
			Detail("dynamic field locked at offset %d, must start its slot", l.Offset).
			Build()
	case !f.Dynamic && l.Offset+f.Width > SlotSize:
		return errors.New(phase, errors.KindInvalidField).
			Fields(f.Name).
			Value(l).
			Detail("lock %s with width %d crosses the slot boundary", l, f.Width).
			Build()
	}
	return nil
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Clone()
	}
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].Clone(), true
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// ScalarBytes is the sum of widths of all non-dynamic fields.
func (s *Schema) ScalarBytes() int {
	n := 0
	for _, f := range s.fields {
		if !f.Dynamic {
			n += f.Width
		}
	}
	return n
}

// DynamicCount is the number of dynamic fields.
func (s *Schema) DynamicCount() int {
	n := 0
	for _, f := range s.fields {
		if f.Dynamic {
			n++
		}
	}
	return n
}

// LowerBound is the minimum slot count any ordering can reach.
func (s *Schema) LowerBound() int {
	return LowerBound(s.fields)
}

// LowerBound computes ceil(scalar bytes / 32) + dynamic count for fields.
func LowerBound(fields []Field) int {
	scalar, dyn := 0, 0
	for _, f := range fields {
		if f.Dynamic {
			dyn++
		} else {
			scalar += f.Width
		}
	}
	return (scalar+SlotSize-1)/SlotSize + dyn
}

// Groups maps each non-empty group name to its members in declaration order.
func (s *Schema) Groups() map[string][]Field {
	out := make(map[string][]Field)
	for _, f := range s.fields {
		if f.Group != "" {
			out[f.Group] = append(out[f.Group], f.Clone())
		}
	}
	return out
}

// GroupNames returns the sorted list of group names.
func (s *Schema) GroupNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, f := range s.fields {
		if f.Group != "" && !seen[f.Group] {
			seen[f.Group] = true
			names = append(names, f.Group)
		}
	}
	sort.Strings(names)
	return names
}

// Locked returns locked fields sorted by storage position.
func (s *Schema) Locked() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Lock != nil {
			out = append(out, f.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Lock.Before(*out[j].Lock)
	})
	return out
}

// Free returns unlocked fields in declaration order.
func (s *Schema) Free() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Lock == nil {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Reorder returns a new Schema holding the same fields in the given name order.
func (s *Schema) Reorder(names []string) (*Schema, error) {
	if len(names) != len(s.fields) {
		return nil, errors.New(errors.PhaseSchema, errors.KindInvalidField).
			Detail("reorder expects %d names, got %d", len(s.fields), len(names)).
			Build()
	}
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f, ok := s.Field(n)
		if !ok {
			return nil, errors.UnknownField(errors.PhaseSchema, n)
		}
		out = append(out, f)
	}
	return New(out...)
}
