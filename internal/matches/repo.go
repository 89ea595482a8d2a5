package matches

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Postgres implementa o ledger de partidas.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const matchColumns = `
	m.id, m.stage_id, s.name, m.home_team_id, h.name, m.away_team_id, a.name,
	m.home_score, m.away_score, m.scheduled_date, m.scheduled_time,
	m.status, m.result, m.is_final, m.created_at, m.updated_at`

const matchJoins = `
	FROM matches m
	JOIN stages s ON s.id = m.stage_id
	JOIN teams h ON h.id = m.home_team_id
	JOIN teams a ON a.id = m.away_team_id`

// UpsertResult grava o placar final de uma partida observada.
// Dedup pela chave natural (stage, home, away, data): re-observar a mesma
// chave atualiza a linha existente em vez de inserir duplicata. Se a
// partida ainda só existe como SCHEDULED (odds chegaram antes do placar),
// a linha SCHEDULED mais recente do confronto é adotada e encerrada.
// Uma partida COMPLETED nunca volta pra SCHEDULED.
func (p *Postgres) UpsertResult(ctx context.Context, stageID, homeID, awayID string, date time.Time, score string) (matchID, result string, err error) {
	homeScore, awayScore := ParseScore(score)
	result = DeriveResult(homeScore, awayScore)
	day := date.UTC().Truncate(24 * time.Hour)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	// 1) linha já existente pra chave natural datada
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM matches
		WHERE stage_id=$1 AND home_team_id=$2 AND away_team_id=$3 AND scheduled_date=$4
		FOR UPDATE`,
		stageID, homeID, awayID, day).Scan(&matchID)

	switch {
	case err == nil:
		// já existe: só atualiza placar/resultado, status nunca regride
		if _, err = tx.ExecContext(ctx, `
			UPDATE matches
			SET home_score=$1, away_score=$2, result=$3, status='COMPLETED',
			    is_final=TRUE, updated_at=NOW()
			WHERE id=$4`,
			homeScore, awayScore, result, matchID); err != nil {
			return "", "", fmt.Errorf("update match result: %w", err)
		}

	case err == sql.ErrNoRows:
		// 2) adota a SCHEDULED mais recente do confronto, se houver
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM matches
			WHERE stage_id=$1 AND home_team_id=$2 AND away_team_id=$3 AND status='SCHEDULED'
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE`,
			stageID, homeID, awayID).Scan(&matchID)

		switch {
		case err == nil:
			if _, err = tx.ExecContext(ctx, `
				UPDATE matches
				SET home_score=$1, away_score=$2, result=$3, status='COMPLETED',
				    is_final=TRUE, scheduled_date=$4, updated_at=NOW()
				WHERE id=$5`,
				homeScore, awayScore, result, day, matchID); err != nil {
				return "", "", fmt.Errorf("complete scheduled match: %w", err)
			}

		case err == sql.ErrNoRows:
			// 3) primeira observação da partida, já encerrada
			matchID = uuid.NewString()
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO matches
				  (id, stage_id, home_team_id, away_team_id, home_score, away_score,
				   scheduled_date, status, result, is_final)
				VALUES ($1,$2,$3,$4,$5,$6,$7,'COMPLETED',$8,TRUE)`,
				matchID, stageID, homeID, awayID, homeScore, awayScore, day, result); err != nil {
				return "", "", fmt.Errorf("insert completed match: %w", err)
			}

		default:
			return "", "", fmt.Errorf("find scheduled match: %w", err)
		}

	default:
		return "", "", fmt.Errorf("find match by key: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", "", fmt.Errorf("commit upsert: %w", err)
	}
	return matchID, result, nil
}

// EnsureScheduled retorna a partida SCHEDULED mais recente do confronto,
// criando uma nova quando as odds chegam antes de qualquer resultado.
func (p *Postgres) EnsureScheduled(ctx context.Context, stageID, homeID, awayID string) (string, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `
		SELECT id FROM matches
		WHERE stage_id=$1 AND home_team_id=$2 AND away_team_id=$3 AND status='SCHEDULED'
		ORDER BY created_at DESC
		LIMIT 1`,
		stageID, homeID, awayID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("find scheduled match: %w", err)
	}

	id = uuid.NewString()
	if _, err := p.db.ExecContext(ctx, `
		INSERT INTO matches (id, stage_id, home_team_id, away_team_id, status)
		VALUES ($1,$2,$3,$4,'SCHEDULED')`,
		id, stageID, homeID, awayID); err != nil {
		return "", fmt.Errorf("insert scheduled match: %w", err)
	}
	return id, nil
}

// GetByID retorna a partida ou sql.ErrNoRows.
func (p *Postgres) GetByID(ctx context.Context, id string) (*Match, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+matchJoins+` WHERE m.id=$1`, id)
	m, err := scanMatch(row)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Scheduled lista partidas agendadas na ordem de criação.
func (p *Postgres) Scheduled(ctx context.Context) ([]Match, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+`
		WHERE m.status='SCHEDULED'
		ORDER BY m.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// RecentCompleted lista as últimas partidas encerradas.
func (p *Postgres) RecentCompleted(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+`
		WHERE m.status='COMPLETED'
		ORDER BY m.scheduled_date DESC NULLS LAST, m.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// CompletedByStage agrupa resultados por fase, na ordem do nome da fase.
func (p *Postgres) CompletedByStage(ctx context.Context) ([]StageResults, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+`
		WHERE m.status='COMPLETED'
		ORDER BY s.name, m.scheduled_date, m.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list by stage: %w", err)
	}
	defer rows.Close()

	ms, err := collectMatches(rows)
	if err != nil {
		return nil, err
	}

	var out []StageResults
	for _, m := range ms {
		if len(out) == 0 || out[len(out)-1].StageName != m.StageName {
			out = append(out, StageResults{StageName: m.StageName})
		}
		last := &out[len(out)-1]
		last.Matches = append(last.Matches, m)
	}
	return out, nil
}

// PendingSettlement lista partidas COMPLETED que ainda têm aposta PENDING
// (alvo da varredura de reconciliação).
func (p *Postgres) PendingSettlement(ctx context.Context) ([]Match, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+`
		WHERE m.status='COMPLETED'
		  AND EXISTS (SELECT 1 FROM bets b WHERE b.match_id=m.id AND b.status='PENDING')
		ORDER BY m.updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending settlement: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanMatch(r rowScanner) (*Match, error) {
	var m Match
	var date sql.NullTime
	var schedTime, result sql.NullString
	if err := r.Scan(
		&m.ID, &m.StageID, &m.StageName, &m.HomeTeamID, &m.HomeTeamName,
		&m.AwayTeamID, &m.AwayTeamName, &m.HomeScore, &m.AwayScore,
		&date, &schedTime, &m.Status, &result, &m.IsFinal,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time
		m.ScheduledDate = &d
	}
	m.ScheduledTime = schedTime.String
	if result.Valid {
		s := result.String
		m.Result = &s
	}
	return &m, nil
}

func collectMatches(rows *sql.Rows) ([]Match, error) {
	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
