package game_test

import (
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "00:00"},
		{d: 999 * time.Millisecond, want: "00:00"},
		{d: time.Second, want: "00:01"},
		{d: 65 * time.Second, want: "01:05"},
		{d: 3599 * time.Second, want: "59:59"},
		{d: 3600 * time.Second, want: "60:00"},
		{d: -time.Second, want: "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			require.Equal(t, tt.want, game.FormatElapsed(tt.d))
		})
	}
}

func TestPercent(t *testing.T) {
	require.Equal(t, 0, game.Percent(0, 10))
	require.Equal(t, 30, game.Percent(3, 10))
	require.Equal(t, 100, game.Percent(10, 10))
	require.Equal(t, 33, game.Percent(1, 3))
	require.Equal(t, 67, game.Percent(2, 3))
	require.Equal(t, 0, game.Percent(1, 0))
}
