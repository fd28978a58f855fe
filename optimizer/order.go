package optimizer

import (
	"strings"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// Score is the ranking key of a fixed order, without the name tie-break.
type Score struct {
	Slots int    `json:"slots"`
	Cost  uint64 `json:"cost"`
}

// Less orders scores by slots, then cost.
func (s Score) Less(o Score) bool {
	if s.Slots != o.Slots {
		return s.Slots < o.Slots
	}
	return s.Cost < o.Cost
}

// Rank packs fields in the given order and scores the result. Two orders
// with equal Rank are equally optimal; Optimize only separates them by the
// name tie-break.
func Rank(fields []schema.Field, profile cost.Profile, model *cost.Model) (Score, error) {
	if model == nil {
		model = cost.NewModel(cost.DefaultParams())
	}
	l, err := layout.Pack(fields)
	if err != nil {
		return Score{}, err
	}
	if profile.Empty() {
		profile = cost.Uniform(l.Order())
	}
	c, err := model.Score(l, profile)
	if err != nil {
		return Score{}, err
	}
	return Score{Slots: l.SlotCount(), Cost: c}, nil
}

// CompareOrder compares two orders of the same fields position by position:
// scalar before dynamic, then by name.
func CompareOrder(a, b []schema.Field) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareField(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareField(a, b schema.Field) int {
	if a.Dynamic != b.Dynamic {
		if a.Dynamic {
			return 1
		}
		return -1
	}
	return strings.Compare(a.Name, b.Name)
}

type candidate struct {
	layout *layout.Layout
	seq    []schema.Field
	score  Score
}

// better reports whether a ranks strictly before b. A nil b loses.
func better(a, b *candidate) bool {
	if b == nil {
		return a != nil
	}
	if a == nil {
		return false
	}
	if a.score != b.score {
		return a.score.Less(b.score)
	}
	return CompareOrder(a.seq, b.seq) < 0
}

func newCandidate(seq []schema.Field, profile cost.Profile, model *cost.Model) (*candidate, error) {
	l, err := layout.Pack(seq)
	if err != nil {
		return nil, err
	}
	c, err := model.Score(l, profile)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Field, len(seq))
	copy(out, seq)
	return &candidate{
		layout: l,
		seq:    out,
		score:  Score{Slots: l.SlotCount(), Cost: c},
	}, nil
}

// groupsContiguous reports whether every non-empty group occupies one
// unbroken run of seq.
func groupsContiguous(seq []schema.Field) bool {
	closed := make(map[string]bool)
	prev := ""
	for _, f := range seq {
		if f.Group != prev && prev != "" {
			closed[prev] = true
		}
		if f.Group != "" && f.Group != prev && closed[f.Group] {
			return false
		}
		prev = f.Group
	}
	return true
}
