package cost

import (
	"fmt"
	"testing"

	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

func mustPack(t *testing.T, fields ...schema.Field) *layout.Layout {
	t.Helper()
	l, err := layout.Pack(fields)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return l
}

var unitParams = Params{WarmRead: 1, WarmWrite: 10, ColdSurcharge: 100}

func TestScoreSharedSlotAmortizesCold(t *testing.T) {
	m := NewModel(unitParams)
	profile := Profile{Transactions: []Transaction{{
		Name: "transfer",
		Access: map[string]Access{
			"owner":    {Reads: 1},
			"isActive": {Reads: 1},
		},
	}}}

	shared := mustPack(t, schema.Scalar("owner", 20), schema.Scalar("isActive", 1), schema.Scalar("balance", 32))
	split := mustPack(t, schema.Scalar("owner", 20), schema.Scalar("balance", 32), schema.Scalar("isActive", 1))

	got, err := m.Score(shared, profile)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 1+1+100 {
		t.Errorf("shared: got %d, want 102", got)
	}

	got, err = m.Score(split, profile)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 1+1+200 {
		t.Errorf("split: got %d, want 202", got)
	}
}

func TestScoreWeightsAndWrites(t *testing.T) {
	m := NewModel(unitParams)
	l := mustPack(t, schema.Scalar("a", 16), schema.Scalar("b", 16))
	profile := Profile{Transactions: []Transaction{
		{Name: "w", Weight: 3, Access: map[string]Access{"a": {Writes: 2}}},
		{Name: "r", Access: map[string]Access{"b": {Reads: 1}, "a": {}}},
	}}

	got, err := m.Score(l, profile)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := uint64(3*(20+100) + (1 + 100))
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestScoreUnknownField(t *testing.T) {
	m := NewModel(DefaultParams())
	l := mustPack(t, schema.Scalar("a", 1))
	_, err := m.Score(l, Profile{Transactions: []Transaction{{Access: map[string]Access{"ghost": {Reads: 1}}}}})
	if !errors.IsKind(err, errors.KindUnknownField) {
		t.Errorf("got %v, want unknown_field", err)
	}
}

func TestScoreExtraSlotCost(t *testing.T) {
	var calls []int
	m := &Model{
		Params: unitParams,
		Extra: SlotCostFunc(func(slot int, reads, writes uint64) (uint64, error) {
			calls = append(calls, slot)
			return uint64(slot) * 1000, nil
		}),
	}
	l := mustPack(t, schema.Scalar("a", 32), schema.Scalar("b", 32))
	got, err := m.Score(l, Uniform([]string{"a", "b"}))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 2*(1+10+100)+1000 {
		t.Errorf("got %d, want %d", got, 2*(1+10+100)+1000)
	}
	if len(calls) != 2 || calls[0] != 0 || calls[1] != 1 {
		t.Errorf("extra called for slots %v, want [0 1]", calls)
	}
}

func TestScoreExtraError(t *testing.T) {
	m := &Model{
		Params: unitParams,
		Extra: SlotCostFunc(func(int, uint64, uint64) (uint64, error) {
			return 0, fmt.Errorf("trap")
		}),
	}
	l := mustPack(t, schema.Scalar("a", 1))
	if _, err := m.Score(l, Uniform([]string{"a"})); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("got %v, want plugin error", err)
	}
}

func TestProfileCheck(t *testing.T) {
	p := Uniform([]string{"a", "b"})
	if err := p.Check([]string{"a", "b", "c"}); err != nil {
		t.Errorf("Check: %v", err)
	}
	if err := p.Check([]string{"a"}); !errors.IsKind(err, errors.KindUnknownField) {
		t.Errorf("Check: got %v, want unknown_field", err)
	}
	if !(Profile{}).Empty() {
		t.Error("zero profile should be empty")
	}
}

func TestSlotsTouched(t *testing.T) {
	l := mustPack(t, schema.Scalar("a", 20), schema.Scalar("b", 20), schema.Dyn("c"))
	if got := SlotsTouched(l, Uniform([]string{"a", "b", "c"})); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}
