package optimizer

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

var errBudget = stderrors.New("node budget exhausted")

// cursors are encoded as slot*stride+used, which preserves their order.
const stride = schema.SlotSize + 1

func enc(c layout.Cursor) int32 {
	return int32(c.Slot*stride + c.Used)
}

func dec(x int32) layout.Cursor {
	return layout.Cursor{Slot: int(x) / stride, Used: int(x) % stride}
}

type search struct {
	ctx     context.Context
	p       *plan
	model   *cost.Model
	profile cost.Profile
	stop    atomic.Bool
	nodes   atomic.Int64
	limit   int64
	// reach[state] is the largest cursor from which the optimum is reachable, -1 if none.
	reach []int32
	n, k  int
	full  int
	opt   int
}

func (s *search) state(mask, j int) int {
	return mask*(s.k+1) + j
}

type exactResult struct {
	best     *candidate
	optimum  int
	explored int64
	ties     int64
}

func (r *run) exact(p *plan) (*exactResult, error) {
	s := &search{
		ctx:     r.ctx,
		p:       p,
		model:   r.opts.Model,
		profile: r.profile,
		limit:   r.opts.MaxNodes,
		n:       len(p.units),
		k:       len(p.steps),
	}
	s.full = 1<<s.n - 1

	if !s.solve() {
		return nil, errors.Unsatisfiable(errors.PhaseOptimize, "no order reaches every lock")
	}
	s.bound()

	r.opts.Logger.Debug("exact search",
		zap.Int("units", s.n),
		zap.Int("locks", s.k),
		zap.Int("optimum", s.opt),
	)

	best, ties, err := s.enumerate(r.opts.Workers)
	res := &exactResult{best: best, optimum: s.opt, explored: s.nodes.Load(), ties: ties}
	if err != nil {
		return res, err
	}
	return res, nil
}

// solve runs the forward DP and records the optimal slot count.
func (s *search) solve() bool {
	best := make([]int32, (s.full+1)*(s.k+1))
	for i := range best {
		best[i] = -1
	}
	best[0] = 0
	relax := func(i int, c layout.Cursor) {
		if e := enc(c); best[i] < 0 || e < best[i] {
			best[i] = e
		}
	}

	for mask := 0; mask <= s.full; mask++ {
		for j := 0; j <= s.k; j++ {
			cur := best[s.state(mask, j)]
			if cur < 0 {
				continue
			}
			c := dec(cur)
			if j < s.k {
				if next, _, ok := s.p.steps[j].advance(c); ok {
					relax(s.state(mask, j+1), next)
				}
			}
			for u := 0; u < s.n; u++ {
				if mask&(1<<u) != 0 {
					continue
				}
				next, _, _ := s.p.units[u].advance(c)
				relax(s.state(mask|1<<u, j), next)
			}
		}
	}

	final := best[s.state(s.full, s.k)]
	if final < 0 {
		return false
	}
	s.opt = dec(final).Slots()
	return true
}

// bound runs the backward pass: reach[state] is the largest cursor that can
// still finish within the optimal slot count.
func (s *search) bound() {
	s.reach = make([]int32, (s.full+1)*(s.k+1))
	s.reach[s.state(s.full, s.k)] = enc(layout.Cursor{Slot: s.opt})

	for mask := s.full; mask >= 0; mask-- {
		for j := s.k; j >= 0; j-- {
			if mask == s.full && j == s.k {
				continue
			}
			lim := int32(-1)
			if j < s.k {
				if t := s.reach[s.state(mask, j+1)]; t >= 0 {
					lim = max(lim, latestStart(s.p.steps[j], t))
				}
			}
			for u := 0; u < s.n; u++ {
				if mask&(1<<u) != 0 {
					continue
				}
				if t := s.reach[s.state(mask|1<<u, j)]; t >= 0 {
					lim = max(lim, latestStart(s.p.units[u], t))
				}
			}
			s.reach[s.state(mask, j)] = lim
		}
	}
}

// latestStart returns the largest cursor from which some variant of u ends
// at or before target. Each variant's predicate is monotone, so a binary
// search per variant suffices.
func latestStart(u unit, target int32) int32 {
	lim := int32(-1)
	for _, v := range u.variants {
		ok := func(x int32) bool {
			end, fine := layout.Trace(dec(x), v)
			return fine && enc(end) <= target
		}
		if !ok(max(lim, 0)) {
			continue
		}
		lo, hi := max(lim, 0), target
		for lo < hi {
			mid := lo + (hi-lo+1)/2
			if ok(mid) {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		lim = lo
	}
	return lim
}

// move is one transition: a unit (u >= 0) or the next lock step (u < 0).
type move struct {
	u int
}

// walker enumerates one subtree depth first.
type walker struct {
	s    *search
	best *candidate
	seq  []schema.Field
	ties int64
}

// placed remembers the last unit placement for the in-slot symmetry rule.
type placed struct {
	start layout.Cursor
	unit  int
}

func (s *search) enumerate(workers int) (*candidate, int64, error) {
	var roots []move
	if s.k > 0 {
		roots = append(roots, move{u: -1})
	}
	for u := 0; u < s.n; u++ {
		roots = append(roots, move{u: u})
	}

	walkers := make([]*walker, len(roots))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, m := range roots {
		w := &walker{s: s}
		walkers[i] = w
		g.Go(func() error {
			err := w.step(0, 0, layout.Cursor{}, placed{unit: -1}, m)
			if err != nil {
				s.stop.Store(true)
			}
			return err
		})
	}
	err := g.Wait()

	var best *candidate
	var ties int64
	for _, w := range walkers {
		if w.best == nil {
			continue
		}
		switch {
		case best == nil || w.best.score.Less(best.score):
			ties = w.ties
		case w.best.score == best.score:
			ties += w.ties
		}
		if better(w.best, best) {
			best = w.best
		}
	}
	return best, ties, err
}

// step applies move m from state (mask, j, c) and explores below it, once
// per admissible variant.
func (w *walker) step(mask, j int, c layout.Cursor, last placed, m move) error {
	s := w.s
	if m.u < 0 {
		limit := s.reach[s.state(mask, j+1)]
		for _, v := range s.p.steps[j].variants {
			next, ok := layout.Trace(c, v)
			if !ok || enc(next) > limit || !canonical(c, v) {
				continue
			}
			if err := w.descend(v, mask, j+1, next, placed{unit: -1}); err != nil {
				return err
			}
		}
		return nil
	}

	u := s.p.units[m.u]
	limit := s.reach[s.state(mask|1<<m.u, j)]
	for _, v := range u.variants {
		next, _ := layout.Trace(c, v)
		if enc(next) > limit || !canonical(c, v) {
			continue
		}
		if last.unit >= 0 && m.u < last.unit && sameSlotRun(s.p, last, c, next, m.u) {
			continue
		}
		if err := w.descend(v, mask|1<<m.u, j, next, placed{start: c, unit: m.u}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) descend(v []schema.Field, mask, j int, c layout.Cursor, last placed) error {
	n := len(w.seq)
	w.seq = append(w.seq, v...)
	err := w.visit(mask, j, c, last)
	w.seq = w.seq[:n]
	return err
}

func (w *walker) visit(mask, j int, c layout.Cursor, last placed) error {
	s := w.s
	n := s.nodes.Add(1)
	if n > s.limit {
		return errBudget
	}
	if n&1023 == 1 {
		if s.stop.Load() {
			return errBudget
		}
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}

	if mask == s.full && j == s.k {
		return w.leaf()
	}
	if j < s.k {
		if err := w.step(mask, j, c, last, move{u: -1}); err != nil {
			return err
		}
	}
	for u := 0; u < s.n; u++ {
		if mask&(1<<u) != 0 {
			continue
		}
		if err := w.step(mask, j, c, last, move{u: u}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) leaf() error {
	cand, err := newCandidate(w.seq, w.s.profile, w.s.model)
	if err != nil {
		return err
	}
	switch {
	case w.best == nil || cand.score.Less(w.best.score):
		w.ties = 1
	case cand.score == w.best.score:
		w.ties++
	}
	if better(cand, w.best) {
		w.best = cand
	}
	return nil
}

// sameSlotRun reports whether the previous unit and unit u both sit wholly in
// one slot with nothing opened between them. Swapping such neighbours yields
// the same slots and cost, so only ascending order is explored.
func sameSlotRun(p *plan, last placed, mid, next layout.Cursor, u int) bool {
	a, b := p.units[last.unit], p.units[u]
	if !a.fitsSlot() || !b.fitsSlot() {
		return false
	}
	return last.start.Slot == mid.Slot && mid.Slot == next.Slot &&
		mid.Used == last.start.Used+a.width &&
		next.Used == mid.Used+b.width
}

// canonical applies the same rule inside a variant: two adjacent free
// members packed into one slot without opening it must be in ascending
// order, since their swap is another variant with equal slots and cost.
func canonical(c layout.Cursor, v []schema.Field) bool {
	var prev schema.Field
	inSlot := false
	for i, f := range v {
		next, at, _ := c.Advance(f)
		fits := !f.Locked() && !f.Dynamic && at.Slot == c.Slot && at.Offset == c.Used
		if i > 0 && inSlot && fits && compareField(f, prev) < 0 {
			return false
		}
		prev, inSlot, c = f, fits, next
	}
	return true
}
