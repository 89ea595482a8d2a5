package matches

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		home int
		away int
	}{
		{"2:1", 2, 1},
		{"0:0", 0, 0},
		{"10:3", 10, 3},
		{" 1:2 ", 1, 2},
		{"1 : 2", 1, 2},
		{"", 0, 0},
		{"abc", 0, 0},
		{"x:2", 0, 2},
		{"2:y", 2, 0},
		{"-1:2", 0, 2},
		{"3", 0, 0},
	}

	for _, tt := range tests {
		home, away := ParseScore(tt.in)
		if home != tt.home || away != tt.away {
			t.Errorf("ParseScore(%q) = (%d, %d), want (%d, %d)", tt.in, home, away, tt.home, tt.away)
		}
	}
}

func TestDeriveResult(t *testing.T) {
	require.Equal(t, ResultHomeWin, DeriveResult(2, 1))
	require.Equal(t, ResultAwayWin, DeriveResult(0, 3))
	require.Equal(t, ResultDraw, DeriveResult(1, 1))
	require.Equal(t, ResultDraw, DeriveResult(0, 0))
}
