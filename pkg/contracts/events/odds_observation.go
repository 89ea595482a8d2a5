package events

import "time"

// Evento publicado no tópico "odds_observations".
// Odds ausentes ficam como nil (o produtor pode publicar odds parciais).
type OddsObservation struct {
	StageName    string    `json:"stage_name"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamName string    `json:"away_team_name"`
	HomeOdds     *float64  `json:"home_odds,omitempty"`
	DrawOdds     *float64  `json:"draw_odds,omitempty"`
	AwayOdds     *float64  `json:"away_odds,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
	Source       string    `json:"source"`
}
