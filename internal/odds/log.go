package odds

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot é uma leitura pontual das odds de uma partida.
// Valores individuais podem faltar (a fonte publica odds parciais).
type Snapshot struct {
	ID         string     `json:"id"`
	MatchID    string     `json:"match_id"`
	HomeOdds   *float64   `json:"home_odds,omitempty"`
	DrawOdds   *float64   `json:"draw_odds,omitempty"`
	AwayOdds   *float64   `json:"away_odds,omitempty"`
	CapturedAt time.Time  `json:"captured_at"`
	IsActive   bool       `json:"is_active"`
}

// Log é a série temporal append-only de snapshots de odds por partida.
type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append insere um novo snapshot. Sempre insere, nunca atualiza: duas
// observações com as mesmas odds viram duas linhas distintas.
func (l *Log) Append(ctx context.Context, matchID string, home, draw, away *float64) (*Snapshot, error) {
	s := &Snapshot{
		ID:         uuid.NewString(),
		MatchID:    matchID,
		HomeOdds:   home,
		DrawOdds:   draw,
		AwayOdds:   away,
		CapturedAt: time.Now().UTC(),
		IsActive:   true,
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO odds_snapshots (id, match_id, home_odds, draw_odds, away_odds, captured_at, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,TRUE)`,
		s.ID, s.MatchID, nullable(home), nullable(draw), nullable(away), s.CapturedAt)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return s, nil
}

// LatestActive retorna o snapshot ativo mais recente da partida, ou nil
// quando ainda não há odds registradas.
func (l *Log) LatestActive(ctx context.Context, matchID string) (*Snapshot, error) {
	var s Snapshot
	var home, draw, away sql.NullFloat64
	err := l.db.QueryRowContext(ctx, `
		SELECT id, match_id, home_odds, draw_odds, away_odds, captured_at, is_active
		FROM odds_snapshots
		WHERE match_id=$1 AND is_active
		ORDER BY captured_at DESC
		LIMIT 1`, matchID).Scan(
		&s.ID, &s.MatchID, &home, &draw, &away, &s.CapturedAt, &s.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	s.HomeOdds = fromNull(home)
	s.DrawOdds = fromNull(draw)
	s.AwayOdds = fromNull(away)
	return &s, nil
}

func nullable(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
