package bets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/ledger"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
)

var (
	ErrInvalidMatch    = errors.New("invalid match")
	ErrOddsUnavailable = errors.New("odds unavailable")
	ErrInvalidSide     = errors.New("invalid side")
)

// Engine coloca e liquida apostas. Toda mutação de aposta anda junto com
// o efeito correspondente na conta, dentro de uma transação só.
type Engine struct {
	db      *sql.DB
	matches *matches.Postgres
	oddsLog *odds.Log
	funds   *ledger.Manager
	log     *zap.Logger
}

func NewEngine(db *sql.DB, m *matches.Postgres, o *odds.Log, f *ledger.Manager, log *zap.Logger) *Engine {
	return &Engine{db: db, matches: m, oddsLog: o, funds: f, log: log}
}

// Place valida e registra uma aposta PENDING.
// Congela odds_taken com a odd ativa do momento e debita a stake da
// conta na mesma transação que insere a aposta, pra duas colocações
// concorrentes não passarem ambas na checagem de saldo.
func (e *Engine) Place(ctx context.Context, matchID, side string, stakeCents int64) (*Bet, error) {
	if stakeCents <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if !ValidSide(side) {
		return nil, ErrInvalidSide
	}

	m, err := e.matches.GetByID(ctx, matchID)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidMatch
	}
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	if m.Status != matches.StatusScheduled {
		return nil, ErrInvalidMatch
	}

	snap, err := e.oddsLog.LatestActive(ctx, matchID)
	if err != nil {
		return nil, err
	}
	taken := OddsForSide(snap, side)
	if taken == nil {
		return nil, ErrOddsUnavailable
	}

	b := &Bet{
		ID:                   uuid.NewString(),
		MatchID:              matchID,
		Side:                 side,
		OddsTaken:            *taken,
		StakeCents:           stakeCents,
		PotentialPayoutCents: PotentialPayoutCents(stakeCents, *taken),
		Status:               StatusPending,
		PlacedAt:             time.Now().UTC(),
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin place bet: %w", err)
	}
	defer tx.Rollback()

	// aposta entra antes do débito: o lançamento BET_PLACED referencia o id
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets
		  (id, match_id, side, odds_taken, stake_cents, potential_payout_cents, status, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,'PENDING',$7)`,
		b.ID, b.MatchID, b.Side, b.OddsTaken, b.StakeCents, b.PotentialPayoutCents, b.PlacedAt); err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}

	if err = e.funds.DebitStake(ctx, tx, b.ID, stakeCents); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit place bet: %w", err)
	}

	e.log.Info("bet placed",
		zap.String("bet_id", b.ID),
		zap.String("match_id", matchID),
		zap.String("side", side),
		zap.Int64("stake_cents", stakeCents),
		zap.Float64("odds_taken", b.OddsTaken),
	)
	return b, nil
}

// Settled descreve uma aposta resolvida por SettleForMatch.
type Settled struct {
	Bet             Bet
	Outcome         string
	PayoutCents     int64
	ProfitLossCents int64
}

// SettleForMatch resolve todas as apostas PENDING da partida contra o
// resultado dado. Cada aposta é liquidada na própria transação (status +
// efeito na conta + journal como unidade); uma falha no meio do lote
// deixa as demais PENDING pra retry, nunca uma aposta pela metade.
// Zero apostas pendentes é no-op, não erro.
func (e *Engine) SettleForMatch(ctx context.Context, matchID, result string) ([]Settled, error) {
	pending, err := e.PendingForMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var out []Settled
	for _, b := range pending {
		s, err := e.settleOne(ctx, b.ID, result)
		if err != nil {
			return out, fmt.Errorf("settle bet %s: %w", b.ID, err)
		}
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// settleOne liquida uma aposta. Relê o status sob FOR UPDATE: se outra
// liquidação chegou antes, vira no-op (idempotência).
func (e *Engine) settleOne(ctx context.Context, betID, result string) (*Settled, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settle: %w", err)
	}
	defer tx.Rollback()

	var b Bet
	err = tx.QueryRowContext(ctx, `
		SELECT id, match_id, side, odds_taken, stake_cents, potential_payout_cents, status, placed_at
		FROM bets WHERE id=$1 FOR UPDATE`, betID).Scan(
		&b.ID, &b.MatchID, &b.Side, &b.OddsTaken, &b.StakeCents, &b.PotentialPayoutCents, &b.Status, &b.PlacedAt)
	if err != nil {
		return nil, fmt.Errorf("lock bet: %w", err)
	}
	if b.Status != StatusPending {
		return nil, nil // já liquidada
	}

	outcome := Outcome(b.Side, result)
	payout, profitLoss := SettlementAmounts(outcome, b.StakeCents, b.PotentialPayoutCents)
	settledAt := time.Now().UTC()

	if _, err = tx.ExecContext(ctx, `
		UPDATE bets
		SET status=$1, actual_payout_cents=$2, profit_loss_cents=$3, settled_at=$4
		WHERE id=$5`,
		outcome, payout, profitLoss, settledAt, b.ID); err != nil {
		return nil, fmt.Errorf("update bet: %w", err)
	}

	if err = e.funds.CreditSettlement(ctx, tx, b.ID, outcome, b.StakeCents, profitLoss); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle: %w", err)
	}

	b.Status = outcome
	b.ActualPayoutCents = &payout
	b.ProfitLossCents = &profitLoss
	b.SettledAt = &settledAt

	e.log.Info("bet settled",
		zap.String("bet_id", b.ID),
		zap.String("match_id", b.MatchID),
		zap.String("outcome", outcome),
		zap.Int64("profit_loss_cents", profitLoss),
	)
	return &Settled{Bet: b, Outcome: outcome, PayoutCents: payout, ProfitLossCents: profitLoss}, nil
}

// PendingForMatch lista as apostas PENDING de uma partida.
func (e *Engine) PendingForMatch(ctx context.Context, matchID string) ([]Bet, error) {
	return e.list(ctx, `WHERE match_id=$1 AND status='PENDING' ORDER BY placed_at`, matchID)
}

// History lista as apostas em ordem de colocação, com lucro/prejuízo
// acumulado calculado sobre as já liquidadas.
func (e *Engine) History(ctx context.Context, limit int) ([]Bet, error) {
	if limit <= 0 {
		limit = 50
	}
	bs, err := e.list(ctx, `ORDER BY placed_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	ComputeRunningProfitLoss(bs)
	return bs, nil
}

// GetByID retorna a aposta ou sql.ErrNoRows.
func (e *Engine) GetByID(ctx context.Context, id string) (*Bet, error) {
	bs, err := e.list(ctx, `WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &bs[0], nil
}

func (e *Engine) list(ctx context.Context, clause string, args ...any) ([]Bet, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, match_id, side, odds_taken, stake_cents, potential_payout_cents,
		       status, actual_payout_cents, profit_loss_cents, placed_at, settled_at
		FROM bets `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		var payout, pl sql.NullInt64
		var settledAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.MatchID, &b.Side, &b.OddsTaken, &b.StakeCents,
			&b.PotentialPayoutCents, &b.Status, &payout, &pl, &b.PlacedAt, &settledAt); err != nil {
			return nil, err
		}
		if payout.Valid {
			v := payout.Int64
			b.ActualPayoutCents = &v
		}
		if pl.Valid {
			v := pl.Int64
			b.ProfitLossCents = &v
		}
		if settledAt.Valid {
			t := settledAt.Time
			b.SettledAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
