package config

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/optimizer"
	"github.com/wippyai/slotpack/schema"
)

func TestFreeze(t *testing.T) {
	s := schema.MustNew(
		schema.Scalar("owner", 20),
		schema.Dyn("tags").InGroup("meta"),
		schema.Scalar("balance", 32),
		schema.Scalar("isActive", 1),
	)
	res, err := optimizer.Optimize(context.Background(), s, cost.Profile{}, optimizer.Options{})
	require.NoError(t, err)

	base := &Document{Search: SearchSpec{ExactThreshold: 5}}
	frozen := Freeze(s, res.Layout, base)
	assert.Equal(t, 5, frozen.Search.ExactThreshold)
	require.Len(t, frozen.Fields, 4)
	assert.Equal(t, res.Order[0], frozen.Fields[0].Name)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(frozen))
	back, err := Parse("frozen.json", FormatJSON, buf.Bytes())
	require.NoError(t, err)

	fs, err := back.Schema()
	require.NoError(t, err)
	tags, _ := fs.Field("tags")
	assert.Equal(t, "meta", tags.Group)
	assert.True(t, tags.Dynamic)

	l, err := layout.PackSchema(fs)
	require.NoError(t, err)
	assert.True(t, res.Layout.Equal(l), "frozen document should reproduce the layout")
	assert.Equal(t, layout.Fingerprint(res.Layout), layout.Fingerprint(l))

	again, err := optimizer.Optimize(context.Background(), fs, cost.Profile{}, optimizer.Options{})
	require.NoError(t, err)
	assert.True(t, res.Layout.Equal(again.Layout), "all-locked schema has one layout")
}
