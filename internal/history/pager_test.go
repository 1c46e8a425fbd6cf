package history

import (
	"context"
	"testing"

	"github.com/matheus3301/wpphist/internal/wid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChat = wid.MustResolve("5511999990000")

func keyOf(i int) wid.MsgKey {
	return wid.MsgKey{ChatID: testChat, ID: msgID(i)}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Key.ID
	}
	return out
}

func TestPagerBeforeAndAfter(t *testing.T) {
	p := NewPager(newMemLog(testChat, 10), 0)
	ctx := context.Background()

	before, err := p.Before(ctx, keyOf(6), 3)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, before.Status)
	assert.Equal(t, []string{"M3", "M4", "M5"}, ids(before.Messages))

	after, err := p.After(ctx, keyOf(6), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"M7", "M8", "M9"}, ids(after.Messages))
}

func TestPagerNeverIncludesAnchor(t *testing.T) {
	p := NewPager(newMemLog(testChat, 20), 0)
	for _, dir := range []Direction{Before, After} {
		res, err := p.Page(context.Background(), keyOf(10), 50, dir)
		require.NoError(t, err)
		assert.NotContains(t, ids(res.Messages), "M10", dir)
	}
}

func TestPagerShortPageAtEdges(t *testing.T) {
	p := NewPager(newMemLog(testChat, 10), 0)
	ctx := context.Background()

	res, err := p.Before(ctx, keyOf(2), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"M1"}, ids(res.Messages))

	res, err = p.After(ctx, keyOf(10), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.NotNil(t, res.Messages)
	assert.Empty(t, res.Messages)
}

func TestPagerUnknownAnchor(t *testing.T) {
	p := NewPager(newMemLog(testChat, 10), 0)
	for _, dir := range []Direction{Before, After} {
		res, err := p.Page(context.Background(), keyOf(99), 5, dir)
		require.NoError(t, err)
		assert.Equal(t, StatusAnchorNotFound, res.Status)
		assert.Nil(t, res.Messages)
		assert.Equal(t, OutcomeNotFound, res.Outcome())
	}
}

func TestPagerValidation(t *testing.T) {
	log := newMemLog(testChat, 10)
	p := NewPager(log, 0)
	ctx := context.Background()

	tests := []struct {
		name   string
		anchor wid.MsgKey
		count  int
		dir    Direction
		field  string
	}{
		{"zero count", keyOf(5), 0, Before, "count"},
		{"negative count", keyOf(5), -3, After, "count"},
		{"bad direction", keyOf(5), 3, Direction("sideways"), "direction"},
		{"empty anchor", wid.MsgKey{}, 3, Before, "anchor"},
		{"anchor without id", wid.MsgKey{ChatID: testChat}, 3, After, "anchor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Page(ctx, tt.anchor, tt.count, tt.dir)
			var iae *InvalidArgumentError
			require.ErrorAs(t, err, &iae)
			assert.Equal(t, tt.field, iae.Field)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
	assert.Zero(t, log.calls)
}

func TestPagerSubstrateError(t *testing.T) {
	log := newMemLog(testChat, 3)
	log.err = errSubstrate
	p := NewPager(log, 0)

	_, err := p.Before(context.Background(), keyOf(2), 1)
	assert.Same(t, errSubstrate, err)
}
