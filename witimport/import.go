package witimport

import (
	"io"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/schema"
)

// Options control how records map to fields.
type Options struct {
	// Flatten expands nested fixed-size records into grouped member fields.
	Flatten bool
}

// FromTypeDef converts a record type into schema fields.
func FromTypeDef(td *wit.TypeDef) ([]schema.Field, error) {
	return Import(td, Options{})
}

// Import converts a record type into schema fields using opts.
func Import(td *wit.TypeDef, opts Options) ([]schema.Field, error) {
	rec := record(td)
	if rec == nil {
		return nil, errors.New(errors.PhaseImport, errors.KindInvalidField).
			Fields(typeName(td)).
			Detail("not a record type").
			Build()
	}

	s := newSizer()
	var out []schema.Field
	for _, f := range rec.Fields {
		if inner := record(asTypeDef(f.Type)); opts.Flatten && inner != nil && !s.of(f.Type).variable {
			for _, m := range inner.Fields {
				field, err := convert(s, f.Name+"."+m.Name, m.Type)
				if err != nil {
					return nil, err
				}
				out = append(out, field.InGroup(f.Name))
			}
			continue
		}
		field, err := convert(s, f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func convert(s *sizer, name string, t wit.Type) (schema.Field, error) {
	in := s.of(t)
	switch {
	case in.variable || in.size > schema.SlotSize:
		return schema.Dyn(name), nil
	case in.size == 0:
		return schema.Field{}, errors.InvalidField(errors.PhaseImport, name, 0)
	}
	return schema.Scalar(name, int(in.size)), nil
}

func asTypeDef(t wit.Type) *wit.TypeDef {
	td, _ := t.(*wit.TypeDef)
	return td
}

// record resolves aliases and returns the record kind, or nil.
func record(td *wit.TypeDef) *wit.Record {
	for td != nil {
		switch kind := td.Kind.(type) {
		case *wit.Record:
			return kind
		case *wit.TypeDef:
			td = kind
		default:
			return nil
		}
	}
	return nil
}

func typeName(td *wit.TypeDef) string {
	if td != nil && td.Name != nil {
		return *td.Name
	}
	return "<anonymous>"
}

// Decode reads a resolve in wasm-tools JSON form.
func Decode(r io.Reader) (*wit.Resolve, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.New(errors.PhaseImport, errors.KindInvalidConfig).
			Detail("decode WIT JSON").
			Cause(err).
			Build()
	}
	return res, nil
}

// Lookup finds a record type by name.
func Lookup(resolve *wit.Resolve, name string) (*wit.TypeDef, error) {
	if resolve != nil {
		for _, td := range resolve.TypeDefs {
			if td.Name != nil && *td.Name == name && record(td) != nil {
				return td, nil
			}
		}
	}
	return nil, errors.New(errors.PhaseImport, errors.KindUnknownField).
		Fields(name).
		Detail("no record type named %q", name).
		Build()
}
