package witimport

import "go.bytecodealliance.org/wit"

// info is the Canonical ABI footprint of a type. variable marks types whose
// content lives out of line (strings, lists and anything holding them).
type info struct {
	size     uint32
	align    uint32
	variable bool
}

// sizer computes footprints and caches them per type definition.
type sizer struct {
	cache map[*wit.TypeDef]info
}

func newSizer() *sizer {
	return &sizer{cache: make(map[*wit.TypeDef]info)}
}

func alignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

func discriminantSize(cases int) uint32 {
	switch {
	case cases <= 1<<8:
		return 1
	case cases <= 1<<16:
		return 2
	default:
		return 4
	}
}

func (s *sizer) of(t wit.Type) info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return info{size: 1, align: 1}
	case wit.U16, wit.S16:
		return info{size: 2, align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return info{size: 4, align: 4}
	case wit.U64, wit.S64, wit.F64:
		return info{size: 8, align: 8}
	case wit.String:
		return info{size: 8, align: 4, variable: true}
	case *wit.TypeDef:
		return s.typeDef(typ)
	default:
		return info{align: 1}
	}
}

func (s *sizer) typeDef(t *wit.TypeDef) info {
	if cached, ok := s.cache[t]; ok {
		return cached
	}

	var in info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		in = s.sequence(types)
	case *wit.Tuple:
		in = s.sequence(kind.Types)
	case *wit.List:
		in = info{size: 8, align: 4, variable: true}
	case *wit.Variant:
		var payloads []wit.Type
		for _, c := range kind.Cases {
			payloads = append(payloads, c.Type)
		}
		in = s.tagged(discriminantSize(len(kind.Cases)), payloads...)
	case *wit.Option:
		in = s.tagged(1, kind.Type)
	case *wit.Result:
		in = s.tagged(1, kind.OK, kind.Err)
	case *wit.Enum:
		n := discriminantSize(len(kind.Cases))
		in = info{size: n, align: n}
	case *wit.Flags:
		in = flags(len(kind.Flags))
	case *wit.Own, *wit.Borrow:
		in = info{size: 4, align: 4}
	case wit.Type:
		in = s.of(kind)
	default:
		in = info{align: 1}
	}

	s.cache[t] = in
	return in
}

// sequence lays types out back to back with alignment padding.
func (s *sizer) sequence(types []wit.Type) info {
	maxAlign := uint32(1)
	offset := uint32(0)
	variable := false
	for _, t := range types {
		in := s.of(t)
		offset = alignTo(offset, in.align)
		offset += in.size
		maxAlign = max(maxAlign, in.align)
		variable = variable || in.variable
	}
	return info{size: alignTo(offset, maxAlign), align: maxAlign, variable: variable}
}

// tagged is a discriminant followed by the largest payload. nil payloads are
// cases without a value.
func (s *sizer) tagged(disc uint32, payloads ...wit.Type) info {
	maxAlign := disc
	maxSize := uint32(0)
	variable := false
	for _, p := range payloads {
		if p == nil {
			continue
		}
		in := s.of(p)
		maxAlign = max(maxAlign, in.align)
		maxSize = max(maxSize, in.size)
		variable = variable || in.variable
	}
	payload := alignTo(disc, maxAlign)
	return info{size: alignTo(payload+maxSize, maxAlign), align: maxAlign, variable: variable}
}

func flags(n int) info {
	switch {
	case n == 0:
		return info{align: 1}
	case n <= 8:
		return info{size: 1, align: 1}
	case n <= 16:
		return info{size: 2, align: 2}
	default:
		return info{size: uint32((n+31)/32) * 4, align: 4}
	}
}
