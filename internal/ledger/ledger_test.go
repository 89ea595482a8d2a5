package ledger

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/footysim/bet-engine/internal/shared/db"
)

const testStartingBalance = int64(100000)

// testDB abre o Postgres de teste (TEST_POSTGRES_DSN) e zera o estado.
// Sem a variável o teste é pulado.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	pg, err := db.ConnectPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	require.NoError(t, db.Migrate(pg, testStartingBalance))

	_, err = pg.Exec(`TRUNCATE transactions, bets, odds_snapshots, matches, teams, stages`)
	require.NoError(t, err)
	_, err = pg.Exec(`
		UPDATE account
		SET balance_cents=$1, total_deposits_cents=0, total_withdrawals_cents=0,
		    total_wins=0, total_losses=0, total_profit_loss_cents=0, updated_at=NOW()
		WHERE id=1`, testStartingBalance)
	require.NoError(t, err)
	return pg
}

func TestDepositAndWithdraw(t *testing.T) {
	pg := testDB(t)
	m := NewManager(pg)
	ctx := context.Background()

	a, err := m.Deposit(ctx, 25000)
	require.NoError(t, err)
	require.Equal(t, testStartingBalance+25000, a.BalanceCents)
	require.Equal(t, int64(25000), a.TotalDepositsCents)

	a, err = m.Withdraw(ctx, 5000)
	require.NoError(t, err)
	require.Equal(t, testStartingBalance+20000, a.BalanceCents)
	require.Equal(t, int64(5000), a.TotalWithdrawalsCents)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	pg := testDB(t)
	m := NewManager(pg)
	ctx := context.Background()

	_, err := m.Withdraw(ctx, testStartingBalance+1)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// saldo intocado
	a, err := m.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, testStartingBalance, a.BalanceCents)

	txs, err := m.Transactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestInvalidAmounts(t *testing.T) {
	pg := testDB(t)
	m := NewManager(pg)
	ctx := context.Background()

	_, err := m.Deposit(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.Deposit(ctx, -100)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.Withdraw(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

// Reaplicar o journal em ordem sobre o saldo inicial tem que reproduzir o
// saldo corrente, e cada lançamento tem que encadear before/after.
func TestJournalReplay(t *testing.T) {
	pg := testDB(t)
	m := NewManager(pg)
	ctx := context.Background()

	_, err := m.Deposit(ctx, 30000)
	require.NoError(t, err)
	_, err = m.Withdraw(ctx, 12000)
	require.NoError(t, err)
	_, err = m.Deposit(ctx, 500)
	require.NoError(t, err)

	a, err := m.Summary(ctx)
	require.NoError(t, err)

	txs, err := m.Transactions(ctx, 100)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	// Transactions devolve mais recente primeiro; replay anda do fim pro início
	replayed := testStartingBalance
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		require.Equal(t, replayed, tx.BalanceBeforeCents, "lançamento %d não encadeia", tx.ID)
		replayed += tx.AmountCents
		require.Equal(t, replayed, tx.BalanceAfterCents)
	}
	require.Equal(t, a.BalanceCents, replayed)
}
