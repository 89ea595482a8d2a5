package matches

import "time"

// Status de partida: SCHEDULED -> COMPLETED é a única transição possível.
const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
)

// Resultado derivado do placar final.
const (
	ResultHomeWin = "HOME_WIN"
	ResultAwayWin = "AWAY_WIN"
	ResultDraw    = "DRAW"
)

// Match é o modelo persistido no Postgres.
type Match struct {
	ID            string
	StageID       string
	StageName     string
	HomeTeamID    string
	HomeTeamName  string
	AwayTeamID    string
	AwayTeamName  string
	HomeScore     int
	AwayScore     int
	ScheduledDate *time.Time
	ScheduledTime string
	Status        string
	Result        *string // nil enquanto SCHEDULED
	IsFinal       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StageResults agrupa partidas encerradas por fase (visão de consulta).
type StageResults struct {
	StageName string
	Matches   []Match
}
