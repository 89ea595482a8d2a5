package dto

import (
	"time"

	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ScheduledMatch é uma partida agendada com o snapshot de odds mais
// recente (quando houver).
type ScheduledMatch struct {
	MatchID   string         `json:"match_id"`
	Stage     string         `json:"stage"`
	HomeTeam  string         `json:"home_team"`
	AwayTeam  string         `json:"away_team"`
	CreatedAt time.Time      `json:"created_at"`
	Odds      *odds.Snapshot `json:"odds,omitempty"`
}

// CompletedMatch é uma partida encerrada na visão de consulta.
type CompletedMatch struct {
	MatchID       string     `json:"match_id"`
	Stage         string     `json:"stage"`
	HomeTeam      string     `json:"home_team"`
	AwayTeam      string     `json:"away_team"`
	HomeScore     int        `json:"home_score"`
	AwayScore     int        `json:"away_score"`
	Result        string     `json:"result"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}

// StageResults agrupa partidas encerradas por fase.
type StageResults struct {
	Stage   string           `json:"stage"`
	Matches []CompletedMatch `json:"matches"`
}

func NewCompletedMatch(m matches.Match) CompletedMatch {
	out := CompletedMatch{
		MatchID:       m.ID,
		Stage:         m.StageName,
		HomeTeam:      m.HomeTeamName,
		AwayTeam:      m.AwayTeamName,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		ScheduledDate: m.ScheduledDate,
	}
	if m.Result != nil {
		out.Result = *m.Result
	}
	return out
}
