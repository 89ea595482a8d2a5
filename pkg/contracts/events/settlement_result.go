package events

import "time"

// Evento emitido pelo coordenador de liquidação após resolver uma aposta.
type SettlementResult struct {
	BetID             string    `json:"bet_id"`
	MatchID           string    `json:"match_id"`
	Side              string    `json:"side"`   // "HOME" | "DRAW" | "AWAY"
	Status            string    `json:"status"` // "WON" | "LOST" | "PUSH"
	ActualPayoutCents int64     `json:"actual_payout_cents"`
	ProfitLossCents   int64     `json:"profit_loss_cents"`
	Ts                time.Time `json:"ts"`
}
