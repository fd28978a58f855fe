package layout

import (
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/schema"
)

// SlotWaste is the unused space of one slot. Applicable is false for dynamic
// slots, where waste is not defined.
type SlotWaste struct {
	Index      int  `json:"index"`
	Bytes      int  `json:"bytes"`
	Applicable bool `json:"applicable"`
}

// Report is the result of auditing a fixed field order.
type Report struct {
	Layout     *Layout     `json:"layout"`
	Slots      []SlotWaste `json:"slots"`
	TotalWaste int         `json:"total_wasted_bytes"`
	SlotCount  int         `json:"slot_count"`
	LowerBound int         `json:"lower_bound"`
}

// Validate packs fields without reordering and reports slot usage and waste.
func Validate(fields []schema.Field) (*Report, error) {
	if len(fields) == 0 {
		return nil, errors.EmptySchema(errors.PhaseValidate)
	}
	l, err := Pack(fields)
	if err != nil {
		return nil, err
	}
	return Audit(l, schema.LowerBound(fields)), nil
}

// ValidateSchema audits a schema in declaration order.
func ValidateSchema(s *schema.Schema) (*Report, error) {
	if s == nil {
		return nil, errors.EmptySchema(errors.PhaseValidate)
	}
	return Validate(s.Fields())
}

// Audit computes waste figures for an existing layout.
func Audit(l *Layout, lowerBound int) *Report {
	r := &Report{
		Layout:     l,
		Slots:      make([]SlotWaste, len(l.Slots)),
		SlotCount:  l.SlotCount(),
		LowerBound: lowerBound,
	}
	for i, s := range l.Slots {
		w := SlotWaste{Index: s.Index}
		if !s.Dynamic() {
			w.Applicable = true
			w.Bytes = s.Free()
			r.TotalWaste += w.Bytes
		}
		r.Slots[i] = w
	}
	return r
}

// Excess is the number of slots above the theoretical lower bound.
func (r *Report) Excess() int {
	return r.SlotCount - r.LowerBound
}
