package dto

type PlaceBetRequest struct {
	MatchID    string `json:"match_id"`
	Side       string `json:"side"` // "HOME" | "DRAW" | "AWAY"
	StakeCents int64  `json:"stake_cents"`
}

type AmountRequest struct {
	AmountCents int64 `json:"amount_cents"`
}
