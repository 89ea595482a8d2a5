package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Tipos de lançamento no journal de transações.
const (
	KindDeposit       = "DEPOSIT"
	KindWithdrawal    = "WITHDRAWAL"
	KindBetPlaced     = "BET_PLACED"
	KindBetSettlement = "BET_SETTLEMENT"
)

// Account é a conta única do sistema. Existe exatamente uma linha
// (id=1, travada por CHECK), criada com o saldo inicial na migração.
type Account struct {
	BalanceCents          int64     `json:"balance_cents"`
	TotalDepositsCents    int64     `json:"total_deposits_cents"`
	TotalWithdrawalsCents int64     `json:"total_withdrawals_cents"`
	TotalWins             int       `json:"total_wins"`
	TotalLosses           int       `json:"total_losses"`
	TotalProfitLossCents  int64     `json:"total_profit_loss_cents"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Transaction é um lançamento imutável do journal. amount_cents é
// assinado: crédito positivo, débito negativo. Reaplicar o journal em
// ordem a partir do saldo inicial reproduz o saldo corrente.
type Transaction struct {
	ID                 int64     `json:"id"`
	RelatedBetID       *string   `json:"related_bet_id,omitempty"`
	Kind               string    `json:"kind"`
	AmountCents        int64     `json:"amount_cents"`
	BalanceBeforeCents int64     `json:"balance_before_cents"`
	BalanceAfterCents  int64     `json:"balance_after_cents"`
	Description        string    `json:"description"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Manager é o único caminho de mutação da conta. Toda escrita segura
// FOR UPDATE na linha da conta, então leitura de saldo, novo saldo e
// lançamento no journal formam uma unidade serializada.
type Manager struct{ db *sql.DB }

func NewManager(db *sql.DB) *Manager { return &Manager{db: db} }

// Deposit credita o valor na conta e lança DEPOSIT no journal.
func (m *Manager) Deposit(ctx context.Context, amountCents int64) (*Account, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin deposit: %w", err)
	}
	defer tx.Rollback()

	before, err := lockBalance(ctx, tx)
	if err != nil {
		return nil, err
	}
	after := before + amountCents

	if _, err = tx.ExecContext(ctx, `
		UPDATE account
		SET balance_cents=$1, total_deposits_cents=total_deposits_cents+$2, updated_at=NOW()
		WHERE id=1`, after, amountCents); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err = appendJournal(ctx, tx, nil, KindDeposit, amountCents, before, after, "deposit"); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit deposit: %w", err)
	}
	return m.Summary(ctx)
}

// Withdraw debita o valor da conta e lança WITHDRAWAL no journal.
// Falha com ErrInsufficientFunds sem tocar no saldo.
func (m *Manager) Withdraw(ctx context.Context, amountCents int64) (*Account, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin withdraw: %w", err)
	}
	defer tx.Rollback()

	before, err := lockBalance(ctx, tx)
	if err != nil {
		return nil, err
	}
	if amountCents > before {
		return nil, ErrInsufficientFunds
	}
	after := before - amountCents

	if _, err = tx.ExecContext(ctx, `
		UPDATE account
		SET balance_cents=$1, total_withdrawals_cents=total_withdrawals_cents+$2, updated_at=NOW()
		WHERE id=1`, after, amountCents); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err = appendJournal(ctx, tx, nil, KindWithdrawal, -amountCents, before, after, "withdrawal"); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdraw: %w", err)
	}
	return m.Summary(ctx)
}

// DebitStake debita a stake de uma aposta dentro da transação do caller,
// pra checagem de saldo, débito e criação da aposta serem uma unidade só.
func (m *Manager) DebitStake(ctx context.Context, tx *sql.Tx, betID string, stakeCents int64) error {
	before, err := lockBalance(ctx, tx)
	if err != nil {
		return err
	}
	if stakeCents > before {
		return ErrInsufficientFunds
	}
	after := before - stakeCents

	if _, err = tx.ExecContext(ctx, `
		UPDATE account SET balance_cents=$1, updated_at=NOW() WHERE id=1`, after); err != nil {
		return fmt.Errorf("debit stake: %w", err)
	}

	return appendJournal(ctx, tx, &betID, KindBetPlaced, -stakeCents, before, after, "bet placed")
}

// CreditSettlement aplica o efeito de liquidação de uma aposta na conta,
// dentro da transação do caller (a mesma que muda o status da aposta).
//
// A stake sai da conta na colocação e não volta: vitória credita só o
// lucro, derrota não movimenta saldo (o prejuízo já foi realizado no
// débito da stake), push devolve a stake. total_wins/total_losses contam
// o desfecho (push não conta em nenhum) e total_profit_loss acumula o
// resultado da aposta.
func (m *Manager) CreditSettlement(ctx context.Context, tx *sql.Tx, betID, outcome string, stakeCents, profitLossCents int64) error {
	before, err := lockBalance(ctx, tx)
	if err != nil {
		return err
	}

	var delta int64
	wins, losses := 0, 0
	switch outcome {
	case "WON":
		delta = profitLossCents
		wins = 1
	case "LOST":
		delta = 0
		losses = 1
	case "PUSH":
		delta = stakeCents
	default:
		return fmt.Errorf("unknown settlement outcome %q", outcome)
	}
	after := before + delta

	if _, err = tx.ExecContext(ctx, `
		UPDATE account
		SET balance_cents=$1,
		    total_wins=total_wins+$2,
		    total_losses=total_losses+$3,
		    total_profit_loss_cents=total_profit_loss_cents+$4,
		    updated_at=NOW()
		WHERE id=1`, after, wins, losses, profitLossCents); err != nil {
		return fmt.Errorf("apply settlement: %w", err)
	}

	return appendJournal(ctx, tx, &betID, KindBetSettlement, delta, before, after, "bet settlement: "+outcome)
}

// Summary retorna o estado corrente da conta.
func (m *Manager) Summary(ctx context.Context) (*Account, error) {
	var a Account
	err := m.db.QueryRowContext(ctx, `
		SELECT balance_cents, total_deposits_cents, total_withdrawals_cents,
		       total_wins, total_losses, total_profit_loss_cents, updated_at
		FROM account WHERE id=1`).Scan(
		&a.BalanceCents, &a.TotalDepositsCents, &a.TotalWithdrawalsCents,
		&a.TotalWins, &a.TotalLosses, &a.TotalProfitLossCents, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("account summary: %w", err)
	}
	return &a, nil
}

// Transactions lista o journal em ordem de ocorrência, mais recente
// primeiro.
func (m *Manager) Transactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, related_bet_id, kind, amount_cents,
		       balance_before_cents, balance_after_cents, description, occurred_at
		FROM transactions
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var betID sql.NullString
		if err := rows.Scan(&t.ID, &betID, &t.Kind, &t.AmountCents,
			&t.BalanceBeforeCents, &t.BalanceAfterCents, &t.Description, &t.OccurredAt); err != nil {
			return nil, err
		}
		if betID.Valid {
			s := betID.String
			t.RelatedBetID = &s
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func lockBalance(ctx context.Context, tx *sql.Tx) (int64, error) {
	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM account WHERE id=1 FOR UPDATE`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("lock account: %w", err)
	}
	return balance, nil
}

func appendJournal(ctx context.Context, tx *sql.Tx, betID *string, kind string, amount, before, after int64, desc string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		  (related_bet_id, kind, amount_cents, balance_before_cents, balance_after_cents, description)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		betID, kind, amount, before, after, desc); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}
