package events

import "time"

// Evento publicado no tópico "match_observations" quando o produtor
// observa o placar final de uma partida.
type MatchObservation struct {
	StageName     string    `json:"stage_name"`
	HomeTeamName  string    `json:"home_team_name"`
	AwayTeamName  string    `json:"away_team_name"`
	FullTimeScore string    `json:"full_time_score"` // "H:A"
	ObservedAt    time.Time `json:"observed_at"`
	Source        string    `json:"source"` // "match-simulator"
}
