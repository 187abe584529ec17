package harvest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderharvest-backend/lib/timezone"
)

func TestDefaultWindowIsYesterday(t *testing.T) {
	now := time.Date(2025, 1, 11, 9, 30, 0, 0, timezone.Location)
	w := DefaultWindow(now)

	require.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, timezone.Location), w.Start)
	require.Equal(t, "2025-01-10", w.Label())
	require.True(t, w.Contains(time.Date(2025, 1, 10, 23, 59, 59, 0, timezone.Location)))
	require.False(t, w.Contains(time.Date(2025, 1, 11, 0, 0, 1, 0, timezone.Location)))
}

func TestWindowBoundsAreInclusive(t *testing.T) {
	w, err := ParseWindow("2025-01-10", "2025-01-10")
	require.NoError(t, err)

	// winter: London == UTC, so the offset-bearing instants line up with
	// the civil bounds exactly
	in, err := ParseUpstreamTime("2025-01-10T23:59:59Z")
	require.NoError(t, err)
	require.True(t, w.Contains(in))

	out, err := ParseUpstreamTime("2025-01-11T00:00:01Z")
	require.NoError(t, err)
	require.False(t, w.Contains(out))

	start, err := ParseUpstreamTime("2025-01-10T00:00:00Z")
	require.NoError(t, err)
	require.True(t, w.Contains(start))
}

func TestParseWindowSwapsReversedRange(t *testing.T) {
	w, err := ParseWindow("2025-01-12", "2025-01-10")
	require.NoError(t, err)
	require.Equal(t, "2025-01-10", w.Label())
	require.Equal(t, "2025-01-12", w.EndLabel())
	require.Len(t, w.Days(), 3)
}

func TestParseWindowOpenBounds(t *testing.T) {
	w, err := ParseWindow("2025-01-10", "")
	require.NoError(t, err)
	require.False(t, w.Start.IsZero())
	require.True(t, w.End.IsZero())
	require.True(t, w.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2025, 1, 9, 0, 0, 0, 0, timezone.Location)))

	_, err = ParseWindow("10/01/2025", "")
	require.Error(t, err)
}

func TestParseUpstreamTimeFormats(t *testing.T) {
	// offset-bearing values keep their instant
	withOffset, err := ParseUpstreamTime("2025-06-15T12:00:00+08:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 15, 4, 0, 0, 0, time.UTC).Unix(), withOffset.Unix())

	// offset-less values are London wall clock
	bare, err := ParseUpstreamTime("2025-06-15 12:00:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, timezone.Location), bare)

	isoBare, err := ParseUpstreamTime("2025-06-15T12:00:00")
	require.NoError(t, err)
	require.Equal(t, bare.Unix(), isoBare.Unix())

	_, err = ParseUpstreamTime("")
	require.Error(t, err)
	_, err = ParseUpstreamTime("next tuesday")
	require.Error(t, err)
}

func TestWindowFilter(t *testing.T) {
	w, err := ParseWindow("2025-01-10", "2025-01-10")
	require.NoError(t, err)

	records := []Record{
		{OrderID: "in", OrderTime: time.Date(2025, 1, 10, 12, 0, 0, 0, timezone.Location)},
		{OrderID: "before", OrderTime: time.Date(2025, 1, 9, 23, 59, 59, 0, timezone.Location)},
		{OrderID: "after", OrderTime: time.Date(2025, 1, 11, 0, 0, 1, 0, timezone.Location)},
	}
	kept := w.Filter(records)
	require.Len(t, kept, 1)
	require.Equal(t, "in", kept[0].OrderID)
}
