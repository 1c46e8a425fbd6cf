package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowIDs(msgs []Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.RowID
	}
	return out
}

func seq(first, last int64) []int64 {
	var out []int64
	for id := first; id <= last; id++ {
		out = append(out, id)
	}
	return out
}

func TestScanExclusiveLowerBoundWithLimit(t *testing.T) {
	rows := newMemRows(101, 1100)
	c := NewRowCursor(rows, 0)

	got, err := c.Scan(context.Background(), 100, 500)
	require.NoError(t, err)
	assert.Equal(t, seq(101, 600), rowIDs(got))
	assert.Equal(t, 1, rows.opened)
	assert.Equal(t, 1, rows.closed)
	assert.Equal(t, rows.itOpen, rows.itClose)
}

func TestScanExcludesMinRow(t *testing.T) {
	c := NewRowCursor(newMemRows(1, 10), 0)

	got, err := c.Scan(context.Background(), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7}, rowIDs(got))
}

func TestScanLengthIsMinOfLimitAndAvailable(t *testing.T) {
	c := NewRowCursor(newMemRows(1, 10), 0)
	ctx := context.Background()

	for _, tt := range []struct {
		min   int64
		limit int
		want  int
	}{
		{0, 3, 3},
		{0, 10, 10},
		{0, 50, 10},
		{8, 5, 2},
		{10, 5, 0},
		{500, 5, 0},
	} {
		got, err := c.Scan(ctx, tt.min, tt.limit)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "min=%d limit=%d", tt.min, tt.limit)
	}
}

func TestScanUnbounded(t *testing.T) {
	c := NewRowCursor(newMemRows(1, 2500), 0)

	got, err := c.Scan(context.Background(), 1000, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, seq(1001, 2500), rowIDs(got))
}

func TestScanEmptyStore(t *testing.T) {
	c := NewRowCursor(&memRows{}, 0)

	got, err := c.Scan(context.Background(), 0, Unbounded)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScanValidation(t *testing.T) {
	rows := newMemRows(1, 10)
	c := NewRowCursor(rows, 0)

	for _, tt := range []struct {
		min   int64
		limit int
		field string
	}{
		{-1, 10, "minRowId"},
		{0, 0, "limit"},
		{0, -2, "limit"},
	} {
		_, err := c.Scan(context.Background(), tt.min, tt.limit)
		var iae *InvalidArgumentError
		require.ErrorAs(t, err, &iae)
		assert.Equal(t, tt.field, iae.Field)
	}
	assert.Zero(t, rows.opened)
}

func TestParseScanArgs(t *testing.T) {
	lo, n, err := ParseScanArgs("100", "-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), lo)
	assert.Equal(t, Unbounded, n)

	lo, n, err = ParseScanArgs(" 7 ", "2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(7), lo)
	assert.Equal(t, 2, n)

	for _, tt := range []struct {
		min, limit, field string
	}{
		{"NaN", "10", "minRowId"},
		{"abc", "10", "minRowId"},
		{"1.5", "10", "minRowId"},
		{"0", "NaN", "limit"},
		{"0", "Inf", "limit"},
		{"0", "", "limit"},
		{"0", "3.25", "limit"},
		{"0", "99999999999", "limit"},
	} {
		_, _, err := ParseScanArgs(tt.min, tt.limit)
		var iae *InvalidArgumentError
		require.ErrorAs(t, err, &iae, "%q %q", tt.min, tt.limit)
		assert.Equal(t, tt.field, iae.Field)
	}
}

func TestScanErrorsDiscardRowsAndRelease(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		rows := newMemRows(1, 10)
		rows.beginErr = errSubstrate
		got, err := NewRowCursor(rows, 0).Scan(context.Background(), 0, 5)
		assert.Same(t, errSubstrate, err)
		assert.Nil(t, got)
	})

	t.Run("cursor", func(t *testing.T) {
		rows := newMemRows(1, 10)
		rows.curErr = errSubstrate
		got, err := NewRowCursor(rows, 0).Scan(context.Background(), 0, 5)
		assert.Same(t, errSubstrate, err)
		assert.Nil(t, got)
		assert.Equal(t, 1, rows.closed)
	})

	t.Run("mid walk", func(t *testing.T) {
		rows := newMemRows(1, 10)
		rows.walkErr = errSubstrate
		rows.failAt = 4
		got, err := NewRowCursor(rows, 0).Scan(context.Background(), 0, Unbounded)
		assert.Same(t, errSubstrate, err)
		assert.Nil(t, got)
		assert.Equal(t, 1, rows.closed)
		assert.Equal(t, 1, rows.itClose)
	})
}

func TestScanEachStopsOnCallbackError(t *testing.T) {
	rows := newMemRows(1, 10)
	stop := errors.New("stop")
	var seen []int64

	err := NewRowCursor(rows, 0).ScanEach(context.Background(), 0, Unbounded, func(m Message) error {
		seen = append(seen, m.RowID)
		if m.RowID == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []int64{1, 2, 3}, seen)
	assert.Equal(t, 1, rows.itClose)
}
