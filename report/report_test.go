package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/optimizer"
	"github.com/wippyai/slotpack/schema"
)

func audit(t *testing.T, fields ...schema.Field) *layout.Report {
	t.Helper()
	r, err := layout.Validate(fields)
	require.NoError(t, err)
	return r
}

func TestBar(t *testing.T) {
	l, err := layout.Pack([]schema.Field{schema.Scalar("a", 4), schema.Scalar("b", 2), schema.Dyn("d")})
	require.NoError(t, err)
	assert.Equal(t, "####=="+strings.Repeat(".", 26), Bar(l.Slots[0]))
	assert.Equal(t, strings.Repeat("~", 32), Bar(l.Slots[1]))
}

func TestText(t *testing.T) {
	r := audit(t, schema.Scalar("owner", 20), schema.Scalar("balance", 32), schema.Scalar("isActive", 1), schema.Dyn("tags"))

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	assert.True(t, strings.HasPrefix(lines[0], "SLOT  USED  WASTE  OCCUPANCY"))
	assert.Contains(t, lines[1], "owner[0:20]")
	assert.Contains(t, lines[1], "12")
	assert.Contains(t, lines[2], "balance[0:32]")
	assert.Contains(t, lines[3], "isActive[0:1]")
	assert.Contains(t, lines[3], "31")
	assert.Contains(t, lines[4], "dyn")
	assert.Contains(t, lines[4], "n/a")
	assert.Contains(t, lines[4], "tags")
	assert.Equal(t, "slots: 4 (lower bound 3), wasted: 43 bytes", lines[5])
}

func TestTextPadding(t *testing.T) {
	r := audit(t, schema.Scalar("a", 4), schema.Scalar("b", 4).LockedAt(2, 0))
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r))
	assert.Contains(t, buf.String(), "(padding)")
	assert.Equal(t, 3, r.SlotCount)
}

func optimized(t *testing.T) *optimizer.Result {
	t.Helper()
	s := schema.MustNew(schema.Scalar("owner", 20), schema.Scalar("balance", 32), schema.Scalar("isActive", 1))
	res, err := optimizer.Optimize(context.Background(), s, cost.Profile{}, optimizer.Options{})
	require.NoError(t, err)
	return res
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, optimized(t)))
	out := buf.String()
	assert.Contains(t, out, "order: balance, isActive, owner")
	assert.Contains(t, out, "slots: 2 (lower bound 2)")
	assert.Contains(t, out, "input: 3 slots")
	assert.Contains(t, out, "-1 slots")
	assert.Contains(t, out, "search: exact")
}

func TestSummaryInfeasibleInput(t *testing.T) {
	s := schema.MustNew(
		schema.Scalar("a", 4).InGroup("g"),
		schema.Scalar("x", 4),
		schema.Scalar("b", 4).InGroup("g"),
	)
	res, err := optimizer.Optimize(context.Background(), s, cost.Profile{}, optimizer.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, res))
	assert.Contains(t, buf.String(), "no delta")
}

func TestJSON(t *testing.T) {
	res := optimized(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, res))

	var decoded struct {
		Order      []string `json:"order"`
		Slots      int      `json:"slots"`
		SlotDelta  int      `json:"slot_delta"`
		TotalWaste int      `json:"total_wasted_bytes"`
		Layout     struct {
			Slots []struct {
				Occupants []layout.Occupant `json:"occupants"`
			} `json:"slots"`
		} `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res.Order, decoded.Order)
	assert.Equal(t, 2, decoded.Slots)
	assert.Equal(t, -1, decoded.SlotDelta)
	assert.Equal(t, res.TotalWaste, decoded.TotalWaste)
	assert.Len(t, decoded.Layout.Slots, 2)

	r := audit(t, schema.Scalar("a", 4), schema.Dyn("d"))
	buf.Reset()
	require.NoError(t, JSON(&buf, r))
	assert.Contains(t, buf.String(), `"applicable": false`)
	assert.Contains(t, buf.String(), `"slot_count": 2`)
}

func TestStyled(t *testing.T) {
	r := audit(t, schema.Scalar("a", 4), schema.Dyn("d"))
	out := Styled("Input layout", r)
	assert.Contains(t, out, "Input layout")
	assert.Contains(t, out, "a[0:4]")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "slots: 2 (lower bound 2), wasted: 28 bytes")

	sum := StyledSummary(optimized(t))
	assert.Contains(t, sum, "Optimized layout")
	assert.Contains(t, sum, "-1 slots")
	assert.Contains(t, sum, "exact search")
}
