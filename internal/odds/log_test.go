package odds

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/footysim/bet-engine/internal/shared/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	pg, err := db.ConnectPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	require.NoError(t, db.Migrate(pg, 100000))
	_, err = pg.Exec(`TRUNCATE transactions, bets, odds_snapshots, matches, teams, stages`)
	require.NoError(t, err)
	return pg
}

func seedMatch(t *testing.T, pg *sql.DB) string {
	t.Helper()
	stageID, homeID, awayID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	matchID := uuid.NewString()

	_, err := pg.Exec(`INSERT INTO stages (id, name) VALUES ($1,$2)`, stageID, "liga "+stageID[:8])
	require.NoError(t, err)
	_, err = pg.Exec(`INSERT INTO teams (id, name) VALUES ($1,$2),($3,$4)`,
		homeID, "time "+homeID[:8], awayID, "time "+awayID[:8])
	require.NoError(t, err)
	_, err = pg.Exec(`
		INSERT INTO matches (id, stage_id, home_team_id, away_team_id, status)
		VALUES ($1,$2,$3,$4,'SCHEDULED')`, matchID, stageID, homeID, awayID)
	require.NoError(t, err)
	return matchID
}

func TestAppendKeepsHistory(t *testing.T) {
	pg := testDB(t)
	log := NewLog(pg)
	ctx := context.Background()
	matchID := seedMatch(t, pg)

	f := func(v float64) *float64 { return &v }

	_, err := log.Append(ctx, matchID, f(2.50), f(3.20), f(2.80))
	require.NoError(t, err)
	_, err = log.Append(ctx, matchID, f(2.30), f(3.20), f(3.00))
	require.NoError(t, err)

	// mesma leitura repetida ainda vira linha nova
	_, err = log.Append(ctx, matchID, f(2.30), f(3.20), f(3.00))
	require.NoError(t, err)

	var n int
	require.NoError(t, pg.QueryRow(
		`SELECT COUNT(*) FROM odds_snapshots WHERE match_id=$1`, matchID).Scan(&n))
	require.Equal(t, 3, n)

	latest, err := log.LatestActive(ctx, matchID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, 2.30, *latest.HomeOdds)
}

func TestLatestActive_NoSnapshots(t *testing.T) {
	pg := testDB(t)
	log := NewLog(pg)

	latest, err := log.LatestActive(context.Background(), seedMatch(t, pg))
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestAppendPartialOdds(t *testing.T) {
	pg := testDB(t)
	log := NewLog(pg)
	ctx := context.Background()
	matchID := seedMatch(t, pg)

	home := 1.95
	_, err := log.Append(ctx, matchID, &home, nil, nil)
	require.NoError(t, err)

	latest, err := log.LatestActive(ctx, matchID)
	require.NoError(t, err)
	require.Equal(t, 1.95, *latest.HomeOdds)
	require.Nil(t, latest.DrawOdds)
	require.Nil(t, latest.AwayOdds)
}
