package optimizer

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// Summary describes the caller's original order.
type Summary struct {
	Score
	// Feasible is false when the input order breaks a lock or splits a group.
	Feasible bool `json:"feasible"`
}

// Result is the chosen layout and how it compares to the input order.
type Result struct {
	Layout     *layout.Layout `json:"layout"`
	Order      []string       `json:"order"`
	Fields     []schema.Field `json:"-"`
	Input      Summary        `json:"input"`
	Score
	LowerBound int   `json:"lower_bound"`
	TotalWaste int   `json:"total_wasted_bytes"`
	SlotDelta  int   `json:"slot_delta"`
	CostDelta  int64 `json:"estimated_cost_delta"`
	Explored   int64 `json:"explored"`
	// Ties counts distinct orders the exact search found at the optimal score.
	Ties  int64 `json:"ties"`
	Exact bool  `json:"exact"`
}

// Schema returns the result order as a new fixed schema.
func (r *Result) Schema() (*schema.Schema, error) {
	return schema.New(r.Fields...)
}

// Optimizer runs searches with fixed options.
type Optimizer struct {
	opts Options
}

// New creates an optimizer. Zero-valued options take their defaults.
func New(opts Options) *Optimizer {
	return &Optimizer{opts: opts.withDefaults()}
}

// Optimize is shorthand for New(opts).Optimize.
func Optimize(ctx context.Context, s *schema.Schema, profile cost.Profile, opts Options) (*Result, error) {
	return New(opts).Optimize(ctx, s, profile)
}

// Optimize searches for the best order of s. An empty profile means uniform
// access. When the search budget runs out, the heuristic result is returned
// together with a non-fatal search_budget_exceeded error.
func (o *Optimizer) Optimize(ctx context.Context, s *schema.Schema, profile cost.Profile) (*Result, error) {
	if s == nil || s.Len() == 0 {
		return nil, errors.EmptySchema(errors.PhaseOptimize)
	}
	if profile.Empty() {
		profile = cost.Uniform(s.Names())
	}
	if err := profile.Check(s.Names()); err != nil {
		return nil, err
	}

	r := &run{ctx: ctx, opts: o.opts, profile: profile}
	res, err := r.optimize(s, profile)
	if err != nil {
		return res, err
	}
	if r.degraded != nil {
		res.Exact = false
		return res, r.degraded
	}
	return res, nil
}

func (r *run) optimize(s *schema.Schema, profile cost.Profile) (*Result, error) {
	saved := r.profile
	r.profile = profile
	defer func() { r.profile = saved }()

	log := r.opts.Logger
	p, err := r.buildPlan(s)
	if err != nil {
		return nil, err
	}

	var (
		best     *candidate
		fallback error
		exact    bool
		explored int64
		ties     int64
	)

	if len(p.units) <= r.opts.ExactThreshold {
		er, err := r.exact(p)
		switch {
		case err == nil:
			best, exact = er.best, !p.approx
			explored, ties = er.explored, er.ties
		case er != nil && (stderrors.Is(err, errBudget) || r.ctx.Err() != nil):
			explored = er.explored
			fallback = errors.BudgetExceeded(r.opts.MaxNodes, explored, r.ctx.Err())
			log.Info("exact search budget exhausted, using heuristic",
				zap.Int64("explored", explored),
				zap.Int("units", len(p.units)),
			)
		default:
			return nil, err
		}
	} else {
		log.Debug("heuristic search", zap.Int("units", len(p.units)), zap.Int("threshold", r.opts.ExactThreshold))
	}
	if p.approx {
		log.Debug("group too large for every member order, result is not exact")
	}

	if best == nil {
		best, err = newCandidate(p.heuristicOrder(), profile, r.opts.Model)
		if err != nil {
			return nil, err
		}
	}

	// An exact result already ranks at least as well as the input, so the
	// input only competes with heuristic results.
	input := Summary{}
	in, inErr := newCandidate(s.Fields(), profile, r.opts.Model)
	if inErr == nil && groupsContiguous(in.seq) {
		input = Summary{Score: in.score, Feasible: true}
		if !exact && better(in, best) {
			best = in
		}
	}

	res := &Result{
		Layout:     best.layout,
		Order:      best.layout.Order(),
		Fields:     best.seq,
		Input:      input,
		Score:      best.score,
		LowerBound: s.LowerBound(),
		TotalWaste: layout.Audit(best.layout, s.LowerBound()).TotalWaste,
		Explored:   explored,
		Ties:       ties,
		Exact:      exact,
	}
	if input.Feasible {
		res.SlotDelta = res.Slots - input.Slots
		res.CostDelta = int64(res.Cost) - int64(input.Cost)
	}

	log.Debug("optimized",
		zap.Int("slots", res.Slots),
		zap.Uint64("cost", res.Cost),
		zap.Bool("exact", exact),
		zap.Int64("explored", explored),
	)

	if fallback != nil {
		return res, fallback
	}
	return res, nil
}
