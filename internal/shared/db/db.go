package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Migrate cria o schema do engine se ainda não existir e semeia a conta
// única com o saldo inicial configurado (só na primeira execução).
func Migrate(db *sql.DB, startingBalanceCents int64) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS stages (
			id UUID PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS teams (
			id UUID PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id UUID PRIMARY KEY,
			stage_id UUID NOT NULL REFERENCES stages(id),
			home_team_id UUID NOT NULL REFERENCES teams(id),
			away_team_id UUID NOT NULL REFERENCES teams(id),
			home_score INT NOT NULL DEFAULT 0,
			away_score INT NOT NULL DEFAULT 0,
			scheduled_date DATE,
			scheduled_time TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
			result VARCHAR(20),
			is_final BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK ((status = 'COMPLETED') = (result IS NOT NULL))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_natural_key
			ON matches(stage_id, home_team_id, away_team_id, scheduled_date)
			WHERE scheduled_date IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_pairing
			ON matches(stage_id, home_team_id, away_team_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS odds_snapshots (
			id UUID PRIMARY KEY,
			match_id UUID NOT NULL REFERENCES matches(id),
			home_odds DOUBLE PRECISION,
			draw_odds DOUBLE PRECISION,
			away_odds DOUBLE PRECISION,
			captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_odds_snapshots_match
			ON odds_snapshots(match_id, captured_at DESC)`,

		// Conta única: o CHECK trava o id em 1
		`CREATE TABLE IF NOT EXISTS account (
			id INT PRIMARY KEY CHECK (id = 1),
			balance_cents BIGINT NOT NULL,
			total_deposits_cents BIGINT NOT NULL DEFAULT 0,
			total_withdrawals_cents BIGINT NOT NULL DEFAULT 0,
			total_wins INT NOT NULL DEFAULT 0,
			total_losses INT NOT NULL DEFAULT 0,
			total_profit_loss_cents BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS bets (
			id UUID PRIMARY KEY,
			match_id UUID NOT NULL REFERENCES matches(id),
			side VARCHAR(10) NOT NULL,
			odds_taken DOUBLE PRECISION NOT NULL,
			stake_cents BIGINT NOT NULL,
			potential_payout_cents BIGINT NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			actual_payout_cents BIGINT,
			profit_loss_cents BIGINT,
			placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_match_status ON bets(match_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_placed_at ON bets(placed_at)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			related_bet_id UUID REFERENCES bets(id),
			kind VARCHAR(20) NOT NULL,
			amount_cents BIGINT NOT NULL,
			balance_before_cents BIGINT NOT NULL,
			balance_after_cents BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_occurred_at ON transactions(occurred_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Semeia a conta única na primeira execução
	_, err := db.Exec(`
		INSERT INTO account (id, balance_cents)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING`, startingBalanceCents)
	if err != nil {
		return fmt.Errorf("seed account: %w", err)
	}

	return nil
}
