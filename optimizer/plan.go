package optimizer

import (
	"context"
	"sort"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// maxVariants bounds the member orders tried for one group. Larger groups
// fall back to a single arranged order and the search is no longer exact.
const maxVariants = 720

// unit is a free field, a whole group, or a lock step, placed atomically.
// Each variant is one admissible member order.
type unit struct {
	variants [][]schema.Field
	width    int
	dynamic  bool
	// key is the smallest member, which orders units canonically.
	key schema.Field
}

func newUnit(variants [][]schema.Field) unit {
	u := unit{variants: variants}
	for i, f := range variants[0] {
		if f.Dynamic {
			u.dynamic = true
		} else {
			u.width += f.Width
		}
		if i == 0 || compareField(f, u.key) < 0 {
			u.key = f
		}
	}
	return u
}

func single(f schema.Field) unit {
	return newUnit([][]schema.Field{{f}})
}

// fitsSlot reports whether the unit can live inside a single slot.
func (u unit) fitsSlot() bool {
	return !u.dynamic && u.width <= schema.SlotSize
}

// lock returns the first locked member of a lock step.
func (u unit) lock() schema.Field {
	for _, f := range u.variants[0] {
		if f.Locked() {
			return f
		}
	}
	return u.variants[0][0]
}

// advance returns the smallest cursor any variant reaches from c, and the
// index of the first variant reaching it.
func (u unit) advance(c layout.Cursor) (layout.Cursor, int, bool) {
	var best layout.Cursor
	at := -1
	for i, v := range u.variants {
		next, ok := layout.Trace(c, v)
		if ok && (at < 0 || next.Less(best)) {
			best, at = next, i
		}
	}
	return best, at, at >= 0
}

type plan struct {
	units []unit
	// steps hold locked fields in storage order. An anchored group is one
	// step covering all of its members.
	steps []unit
	// approx is set when some group was too large to try every order.
	approx bool
}

// traceSteps packs steps[from:] greedily from c. Taking the smallest cursor
// per step is optimal because packing is monotone in the cursor.
func (p *plan) traceSteps(c layout.Cursor, from int) (layout.Cursor, bool) {
	for _, st := range p.steps[from:] {
		var ok bool
		if c, _, ok = st.advance(c); !ok {
			return c, false
		}
	}
	return c, true
}

func lockPos(f schema.Field) layout.Cursor {
	return layout.Cursor{Slot: f.Lock.Slot, Used: f.Lock.Offset}
}

func lockEnd(f schema.Field) layout.Cursor {
	if f.Dynamic {
		return layout.Cursor{Slot: f.Lock.Slot + 1}
	}
	return layout.Cursor{Slot: f.Lock.Slot, Used: f.Lock.Offset + f.Width}
}

// checkLocks rejects locked fields that claim overlapping bytes.
func checkLocks(locked []schema.Field) error {
	for i := 1; i < len(locked); i++ {
		a, b := locked[i-1], locked[i]
		if lockPos(b).Less(lockEnd(a)) {
			return errors.New(errors.PhaseOptimize, errors.KindUnsatisfiable).
				Fields(a.Name, b.Name).
				Detail("locks %s and %s overlap", a.Lock, b.Lock).
				Build()
		}
	}
	return nil
}

// buildPlan partitions the schema into units and lock steps and checks that
// the constraints admit at least one order.
func (r *run) buildPlan(s *schema.Schema) (*plan, error) {
	locked := s.Locked()
	if err := checkLocks(locked); err != nil {
		return nil, err
	}
	lockIdx := make(map[string]int, len(locked))
	for i, f := range locked {
		lockIdx[f.Name] = i
	}

	p := &plan{}
	anchored := make(map[int]unit)
	covered := make([]bool, len(locked))

	groups := s.Groups()
	for _, g := range s.GroupNames() {
		var pinned, free []schema.Field
		for _, f := range groups[g] {
			if f.Locked() {
				pinned = append(pinned, f)
			} else {
				free = append(free, f)
			}
		}
		sort.Slice(free, func(i, j int) bool {
			return compareField(free[i], free[j]) < 0
		})
		sort.SliceStable(pinned, func(i, j int) bool {
			return pinned[i].Lock.Before(*pinned[j].Lock)
		})

		first, last := -1, -1
		if len(pinned) > 0 {
			var err error
			if first, last, err = anchorRange(g, pinned, locked, lockIdx); err != nil {
				return nil, err
			}
		}

		vs, ok := variants(pinned, free)
		if !ok {
			arranged, err := r.arrangeGroup(free)
			if err != nil {
				return nil, err
			}
			vs = gapVariants(pinned, arranged)
			p.approx = true
		}
		if first < 0 {
			p.units = append(p.units, newUnit(vs))
			continue
		}
		anchored[first] = newUnit(vs)
		for j := first; j <= last; j++ {
			covered[j] = true
		}
	}

	for _, f := range s.Fields() {
		if f.Group == "" && !f.Locked() {
			p.units = append(p.units, single(f))
		}
	}
	sort.SliceStable(p.units, func(i, j int) bool {
		return compareField(p.units[i].key, p.units[j].key) < 0
	})

	for i, f := range locked {
		if st, ok := anchored[i]; ok {
			p.steps = append(p.steps, st)
			continue
		}
		if !covered[i] {
			p.steps = append(p.steps, single(f))
		}
	}

	// Free units only push the cursor forward, so if the locks cannot be
	// reached with every free unit deferred to the end, no order works.
	c := layout.Cursor{}
	var prev []string
	for _, st := range p.steps {
		next, at, ok := st.advance(c)
		if !ok {
			lock := st.lock()
			names := append([]string{lock.Name}, prev...)
			return nil, errors.New(errors.PhaseOptimize, errors.KindUnsatisfiable).
				Fields(names...).
				Detail("lock %s unreachable, preceding locked fields already reach %d:%d", lock.Lock, c.Slot, c.Used).
				Build()
		}
		prev = prev[:0]
		for _, f := range st.variants[at] {
			prev = append(prev, f.Name)
		}
		c = next
	}
	return p, nil
}

// anchorRange returns the run of the lock order holding a group's locked
// members. Another lock inside that run would split the group.
func anchorRange(group string, pinned, locked []schema.Field, lockIdx map[string]int) (int, int, error) {
	first, last := lockIdx[pinned[0].Name], lockIdx[pinned[len(pinned)-1].Name]
	for j := first; j <= last; j++ {
		if f := locked[j]; f.Group != group {
			return 0, 0, errors.New(errors.PhaseOptimize, errors.KindUnsatisfiable).
				Fields(locked[first].Name, f.Name, locked[last].Name).
				Detail("group %q is split by foreign lock %s", group, f.Lock).
				Build()
		}
	}
	return first, last, nil
}

// variants lists every order of a group: each permutation of the free
// members merged into the locked members in every way that keeps the locks
// in storage order. ok is false when there are more than maxVariants.
func variants(pinned, free []schema.Field) ([][]schema.Field, bool) {
	// len(free)! * C(len(pinned)+len(free), len(free))
	n := 1
	for i := 1; i <= len(free); i++ {
		n *= len(pinned) + i
		if n > maxVariants {
			return nil, false
		}
	}

	var out [][]schema.Field
	seq := make([]schema.Field, 0, len(pinned)+len(free))
	used := make([]bool, len(free))
	var walk func(li int)
	walk = func(li int) {
		if len(seq) == cap(seq) {
			out = append(out, append([]schema.Field(nil), seq...))
			return
		}
		if li < len(pinned) {
			seq = append(seq, pinned[li])
			walk(li + 1)
			seq = seq[:len(seq)-1]
		}
		for i, f := range free {
			if used[i] {
				continue
			}
			used[i] = true
			seq = append(seq, f)
			walk(li)
			seq = seq[:len(seq)-1]
			used[i] = false
		}
	}
	walk(0)
	return out, true
}

// gapVariants keeps the free members in one arranged run and tries that run
// in each gap around the locked members.
func gapVariants(pinned, arranged []schema.Field) [][]schema.Field {
	out := make([][]schema.Field, 0, len(pinned)+1)
	for gap := 0; gap <= len(pinned); gap++ {
		v := make([]schema.Field, 0, len(pinned)+len(arranged))
		v = append(v, pinned[:gap]...)
		v = append(v, arranged...)
		v = append(v, pinned[gap:]...)
		out = append(out, v)
	}
	return out
}

// arrangeGroup orders a group's free members by optimizing them on their own.
func (r *run) arrangeGroup(members []schema.Field) ([]schema.Field, error) {
	if len(members) <= 1 {
		return members, nil
	}
	inner := make([]schema.Field, len(members))
	names := make([]string, len(members))
	for i, f := range members {
		f.Group = ""
		inner[i] = f
		names[i] = f.Name
	}
	sub, err := schema.New(inner...)
	if err != nil {
		return nil, err
	}

	res, err := r.optimize(sub, restrict(r.profile, names))
	if err != nil && !errors.IsNonFatal(err) {
		return nil, err
	}
	if err != nil {
		r.degraded = err
	}

	out := make([]schema.Field, len(res.Fields))
	for i, f := range res.Fields {
		orig, _ := sub.Field(f.Name)
		orig.Group = members[0].Group
		out[i] = orig
	}
	return out, nil
}

// restrict keeps only accesses to the named fields.
func restrict(p cost.Profile, names []string) cost.Profile {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	out := cost.Profile{Transactions: make([]cost.Transaction, 0, len(p.Transactions))}
	for _, tx := range p.Transactions {
		t := cost.Transaction{Name: tx.Name, Weight: tx.Weight, Access: make(map[string]cost.Access)}
		for n, a := range tx.Access {
			if keep[n] {
				t.Access[n] = a
			}
		}
		out.Transactions = append(out.Transactions, t)
	}
	return out
}

// run carries per-call state through nested group optimizations.
type run struct {
	ctx      context.Context
	opts     Options
	profile  cost.Profile
	degraded error
}
