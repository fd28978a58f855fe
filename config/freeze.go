package config

import (
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// Freeze returns a document that pins every field of s at its position in l,
// in l's order. The profile, params and search settings of base are kept
// when base is not nil. Later documents built from it can only add fields
// after the frozen ones.
func Freeze(s *schema.Schema, l *layout.Layout, base *Document) *Document {
	d := &Document{}
	if base != nil {
		d.ProfileSpec = base.ProfileSpec
		d.Params = base.Params
		d.Search = base.Search
		d.Source = base.Source
	}
	for _, name := range l.Order() {
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		pos, _ := l.Locate(name)
		fs := FieldSpec{
			Name:    f.Name,
			Group:   f.Group,
			Dynamic: f.Dynamic,
			Lock:    &LockSpec{Slot: pos.Slot, Offset: pos.Offset},
		}
		if !f.Dynamic {
			fs.Width = f.Width
		}
		d.Fields = append(d.Fields, fs)
	}
	return d
}
