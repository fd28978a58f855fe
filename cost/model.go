package cost

import (
	"sort"

	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
)

// Params are the per-access charges of the model.
type Params struct {
	WarmRead      uint64 `json:"warm_read"`
	WarmWrite     uint64 `json:"warm_write"`
	ColdSurcharge uint64 `json:"cold_surcharge"`
}

// DefaultParams returns charges shaped after warm/cold storage access pricing.
func DefaultParams() Params {
	return Params{
		WarmRead:      100,
		WarmWrite:     2900,
		ColdSurcharge: 2000,
	}
}

// SlotCoster adds a caller-defined charge for a slot touched by a transaction.
// reads and writes are the totals over all fields in that slot.
// Implementations must be deterministic and safe for concurrent use.
type SlotCoster interface {
	SlotCost(slot int, reads, writes uint64) (uint64, error)
}

// SlotCostFunc adapts a function to SlotCoster.
type SlotCostFunc func(slot int, reads, writes uint64) (uint64, error)

// SlotCost implements SlotCoster.
func (f SlotCostFunc) SlotCost(slot int, reads, writes uint64) (uint64, error) {
	return f(slot, reads, writes)
}

// Model scores layouts.
type Model struct {
	Extra  SlotCoster
	Params Params
}

// NewModel returns a model with the given params and no extra slot charge.
func NewModel(p Params) *Model {
	return &Model{Params: p}
}

type slotTouch struct {
	reads  uint64
	writes uint64
}

// Score returns the cost of running profile against l.
func (m *Model) Score(l *layout.Layout, profile Profile) (uint64, error) {
	return m.score(l.SlotOf(), profile)
}

// ScoreSlots is Score for a precomputed field-to-slot map.
func (m *Model) ScoreSlots(slotOf map[string]int, profile Profile) (uint64, error) {
	return m.score(slotOf, profile)
}

func (m *Model) score(slotOf map[string]int, profile Profile) (uint64, error) {
	var total uint64
	for _, tx := range profile.Transactions {
		var txCost uint64
		touched := make(map[int]*slotTouch)

		for _, name := range sortedNames(tx.Access) {
			a := tx.Access[name]
			if a.Reads == 0 && a.Writes == 0 {
				continue
			}
			slot, ok := slotOf[name]
			if !ok {
				return 0, errors.UnknownField(errors.PhaseCost, name)
			}
			txCost += a.Reads*m.Params.WarmRead + a.Writes*m.Params.WarmWrite

			st, seen := touched[slot]
			if !seen {
				st = &slotTouch{}
				touched[slot] = st
				txCost += m.Params.ColdSurcharge
			}
			st.reads += a.Reads
			st.writes += a.Writes
		}

		if m.Extra != nil {
			slots := make([]int, 0, len(touched))
			for s := range touched {
				slots = append(slots, s)
			}
			sort.Ints(slots)
			for _, s := range slots {
				extra, err := m.Extra.SlotCost(s, touched[s].reads, touched[s].writes)
				if err != nil {
					return 0, errors.New(errors.PhaseCost, errors.KindPlugin).
						Detail("slot %d", s).
						Cause(err).
						Build()
				}
				txCost += extra
			}
		}

		total += txCost * tx.weight()
	}
	return total, nil
}

// SlotsTouched counts the distinct slots each transaction touches, summed over
// transactions and weighted.
func SlotsTouched(l *layout.Layout, profile Profile) uint64 {
	slotOf := l.SlotOf()
	var n uint64
	for _, tx := range profile.Transactions {
		seen := make(map[int]bool)
		for name, a := range tx.Access {
			if a.Reads == 0 && a.Writes == 0 {
				continue
			}
			if s, ok := slotOf[name]; ok {
				seen[s] = true
			}
		}
		n += uint64(len(seen)) * tx.weight()
	}
	return n
}
