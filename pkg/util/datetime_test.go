package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatWait(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		joinedAt time.Time
		want     string
	}{
		{"just joined", now, "0m"},
		{"under an hour", now.Add(-7 * time.Minute), "7m"},
		{"exactly an hour", now.Add(-60 * time.Minute), "1h 0m"},
		{"over an hour", now.Add(-67 * time.Minute), "1h 7m"},
		{"multiple hours", now.Add(-150 * time.Minute), "2h 30m"},
		{"future join clamps to zero", now.Add(5 * time.Minute), "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatWait(tt.joinedAt, now))
		})
	}
}

func TestFormatJoinedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

	t.Run("same day", func(t *testing.T) {
		joined := time.Date(2026, 3, 1, 14, 15, 0, 0, time.UTC)
		require.Equal(t, "Today, 02:15 PM", FormatJoinedAt(joined, now))
	})

	t.Run("morning same day", func(t *testing.T) {
		joined := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
		require.Equal(t, "Today, 09:05 AM", FormatJoinedAt(joined, now))
	})

	t.Run("earlier day", func(t *testing.T) {
		joined := time.Date(2026, 2, 27, 14, 15, 0, 0, time.UTC)
		require.Equal(t, "02/27/2026 02:15 PM", FormatJoinedAt(joined, now))
	})
}

func TestISO8601RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	s := TimeToISO8601Str(at)
	require.Equal(t, "2026-03-01T10:30:00Z", s)

	parsed, err := ParseISO8601(s)
	require.NoError(t, err)
	require.True(t, at.Equal(parsed))
}
