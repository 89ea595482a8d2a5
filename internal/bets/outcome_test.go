package bets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		side   string
		result string
		want   string
	}{
		{SideHome, matches.ResultHomeWin, StatusWon},
		{SideHome, matches.ResultDraw, StatusLost},
		{SideHome, matches.ResultAwayWin, StatusLost},
		{SideDraw, matches.ResultHomeWin, StatusLost},
		{SideDraw, matches.ResultDraw, StatusWon},
		{SideDraw, matches.ResultAwayWin, StatusLost},
		{SideAway, matches.ResultHomeWin, StatusLost},
		{SideAway, matches.ResultDraw, StatusLost},
		{SideAway, matches.ResultAwayWin, StatusWon},
	}

	for _, tt := range tests {
		got := Outcome(tt.side, tt.result)
		if got != tt.want {
			t.Errorf("Outcome(%s, %s) = %s, want %s", tt.side, tt.result, got, tt.want)
		}
	}
}

func TestValidSide(t *testing.T) {
	require.True(t, ValidSide(SideHome))
	require.True(t, ValidSide(SideDraw))
	require.True(t, ValidSide(SideAway))
	require.False(t, ValidSide("home"))
	require.False(t, ValidSide(""))
	require.False(t, ValidSide("BOTH"))
}

func TestPotentialPayoutCents(t *testing.T) {
	tests := []struct {
		stake int64
		odds  float64
		want  int64
	}{
		{5000, 2.50, 12500},
		{5000, 1.50, 7500},
		{10000, 3.00, 30000},
		{3333, 1.33, 4433}, // 4432.89 arredonda pra cima
		{100, 1.05, 105},
		{1, 1.01, 1},
	}

	for _, tt := range tests {
		got := PotentialPayoutCents(tt.stake, tt.odds)
		if got != tt.want {
			t.Errorf("PotentialPayoutCents(%d, %v) = %d, want %d", tt.stake, tt.odds, got, tt.want)
		}
	}
}

func TestSettlementAmounts(t *testing.T) {
	payout, pl := SettlementAmounts(StatusWon, 5000, 7500)
	require.Equal(t, int64(7500), payout)
	require.Equal(t, int64(2500), pl)

	payout, pl = SettlementAmounts(StatusLost, 5000, 7500)
	require.Equal(t, int64(0), payout)
	require.Equal(t, int64(-5000), pl)

	payout, pl = SettlementAmounts(StatusPush, 5000, 7500)
	require.Equal(t, int64(5000), payout)
	require.Equal(t, int64(0), pl)
}

func TestOddsForSide(t *testing.T) {
	home, away := 1.80, 4.20
	snap := &odds.Snapshot{HomeOdds: &home, AwayOdds: &away}

	require.Equal(t, &home, OddsForSide(snap, SideHome))
	require.Equal(t, &away, OddsForSide(snap, SideAway))
	require.Nil(t, OddsForSide(snap, SideDraw))
	require.Nil(t, OddsForSide(nil, SideHome))
	require.Nil(t, OddsForSide(snap, "OTHER"))
}

func TestComputeRunningProfitLoss(t *testing.T) {
	pl := func(v int64) *int64 { return &v }

	bs := []Bet{
		{ID: "b1", Status: StatusWon, ProfitLossCents: pl(2500)},
		{ID: "b2", Status: StatusPending},
		{ID: "b3", Status: StatusLost, ProfitLossCents: pl(-5000)},
		{ID: "b4", Status: StatusWon, ProfitLossCents: pl(750)},
	}
	ComputeRunningProfitLoss(bs)

	require.Equal(t, int64(2500), *bs[0].RunningProfitLossCents)
	require.Nil(t, bs[1].RunningProfitLossCents)
	require.Equal(t, int64(-2500), *bs[2].RunningProfitLossCents)
	require.Equal(t, int64(-1750), *bs[3].RunningProfitLossCents)
}
