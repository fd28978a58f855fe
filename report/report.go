package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/optimizer"
	"github.com/wippyai/slotpack/schema"
)

// row is one rendered slot.
type row struct {
	fields  []string
	index   int
	used    int
	waste   int
	dynamic bool
	empty   bool
}

func (r row) usedText() string {
	if r.dynamic {
		return "dyn"
	}
	return strconv.Itoa(r.used)
}

func (r row) wasteText() string {
	if r.dynamic {
		return "n/a"
	}
	return strconv.Itoa(r.waste)
}

func rows(l *layout.Layout) []row {
	out := make([]row, len(l.Slots))
	for i, s := range l.Slots {
		r := row{index: s.Index, used: s.Used(), waste: s.Free(), dynamic: s.Dynamic(), empty: len(s.Occupants) == 0}
		for _, o := range s.Occupants {
			if o.Dynamic {
				r.fields = append(r.fields, o.Name)
			} else {
				r.fields = append(r.fields, fmt.Sprintf("%s[%d:%d]", o.Name, o.Offset, o.Offset+o.Width))
			}
		}
		if r.empty {
			r.fields = []string{"(padding)"}
		}
		out[i] = r
	}
	return out
}

// Bar draws slot occupancy, one cell per byte. Consecutive occupants
// alternate between '#' and '=' so neighbours stay distinguishable.
func Bar(s layout.Slot) string {
	if s.Dynamic() {
		return strings.Repeat("~", schema.SlotSize)
	}
	cells := []byte(strings.Repeat(".", schema.SlotSize))
	for i, o := range s.Occupants {
		mark := byte('#')
		if i%2 == 1 {
			mark = '='
		}
		for b := o.Offset; b < o.Offset+o.Width && b < schema.SlotSize; b++ {
			cells[b] = mark
		}
	}
	return string(cells)
}

// Text writes a slot table for an audit report.
func Text(w io.Writer, r *layout.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s  %-4s  %-5s  %-*s  %s\n", "SLOT", "USED", "WASTE", schema.SlotSize, "OCCUPANCY", "FIELDS")
	for i, rw := range rows(r.Layout) {
		fmt.Fprintf(&b, "%-4d  %-4s  %-5s  %s  %s\n",
			rw.index, rw.usedText(), rw.wasteText(), Bar(r.Layout.Slots[i]), strings.Join(rw.fields, " "))
	}
	fmt.Fprintf(&b, "slots: %d (lower bound %d), wasted: %d bytes\n", r.SlotCount, r.LowerBound, r.TotalWaste)
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary writes the optimization outcome and its deltas against the input.
func Summary(w io.Writer, res *optimizer.Result) error {
	var b strings.Builder
	mode := "exact"
	if !res.Exact {
		mode = "heuristic"
	}
	fmt.Fprintf(&b, "order: %s\n", strings.Join(res.Order, ", "))
	fmt.Fprintf(&b, "slots: %d (lower bound %d), wasted: %d bytes, cost: %d\n",
		res.Slots, res.LowerBound, res.TotalWaste, res.Cost)
	if res.Input.Feasible {
		fmt.Fprintf(&b, "input: %d slots, cost %d; delta: %+d slots, %+d cost\n",
			res.Input.Slots, res.Input.Cost, res.SlotDelta, res.CostDelta)
	} else {
		b.WriteString("input: order breaks a constraint, no delta\n")
	}
	fmt.Fprintf(&b, "search: %s, %d nodes", mode, res.Explored)
	if res.Ties > 1 {
		fmt.Fprintf(&b, ", %d equally optimal orders", res.Ties)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
