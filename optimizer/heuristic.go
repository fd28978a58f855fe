package optimizer

import (
	"sort"

	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// heuristicOrder builds a first-fit-decreasing order for the free units and
// merges it with the lock steps.
func (p *plan) heuristicOrder() []schema.Field {
	var small, large, dyn []unit
	for _, u := range p.units {
		switch {
		case u.fitsSlot():
			small = append(small, u)
		case u.dynamic && len(u.variants[0]) == 1:
			dyn = append(dyn, u)
		default:
			large = append(large, u)
		}
	}

	sort.SliceStable(small, func(i, j int) bool {
		return small[i].width > small[j].width
	})
	var bins [][]unit
	var room []int
	for _, u := range small {
		placed := false
		for b := range bins {
			if room[b] >= u.width {
				bins[b] = append(bins[b], u)
				room[b] -= u.width
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, []unit{u})
			room = append(room, schema.SlotSize-u.width)
		}
	}

	var pending []unit
	for _, b := range bins {
		pending = append(pending, b...)
	}
	pending = append(pending, large...)
	pending = append(pending, dyn...)

	return p.mergeLocks(pending)
}

// mergeLocks walks the lock steps in storage order and slips pending units
// into the padding before each lock wherever every later lock stays
// reachable. Whatever is left goes after the last lock. Each unit and step
// takes the variant that leaves the smallest cursor.
func (p *plan) mergeLocks(pending []unit) []schema.Field {
	var out []schema.Field
	c := layout.Cursor{}

	for j, st := range p.steps {
		kept := pending[:0:0]
		for _, u := range pending {
			next, at, _ := u.advance(c)
			if _, ok := p.traceSteps(next, j); ok {
				out = append(out, u.variants[at]...)
				c = next
				continue
			}
			kept = append(kept, u)
		}
		pending = kept

		next, at, _ := st.advance(c)
		out = append(out, st.variants[at]...)
		c = next
	}

	for _, u := range pending {
		next, at, _ := u.advance(c)
		out = append(out, u.variants[at]...)
		c = next
	}
	return out
}
