package bets

import "time"

// Bet é o modelo persistido no Postgres. odds_taken fica congelada na
// colocação e não muda mesmo que snapshots novos cheguem depois.
type Bet struct {
	ID                   string     `json:"id"`
	MatchID              string     `json:"match_id"`
	Side                 string     `json:"side"`
	OddsTaken            float64    `json:"odds_taken"`
	StakeCents           int64      `json:"stake_cents"`
	PotentialPayoutCents int64      `json:"potential_payout_cents"`
	Status               string     `json:"status"`
	ActualPayoutCents    *int64     `json:"actual_payout_cents,omitempty"`
	ProfitLossCents      *int64     `json:"profit_loss_cents,omitempty"`
	PlacedAt             time.Time  `json:"placed_at"`
	SettledAt            *time.Time `json:"settled_at,omitempty"`

	// Saldo acumulado de lucro/prejuízo até esta aposta (visão de
	// histórico, calculado na leitura, não persistido)
	RunningProfitLossCents *int64 `json:"running_profit_loss_cents,omitempty"`
}

// ComputeRunningProfitLoss preenche o acumulado de lucro/prejuízo sobre
// apostas em ordem de colocação. Apostas ainda PENDING não movem o
// acumulado e ficam sem valor.
func ComputeRunningProfitLoss(bs []Bet) {
	var running int64
	for i := range bs {
		if bs[i].ProfitLossCents == nil {
			continue
		}
		running += *bs[i].ProfitLossCents
		v := running
		bs[i].RunningProfitLossCents = &v
	}
}
