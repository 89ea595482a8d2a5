package matches

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/footysim/bet-engine/internal/identity"
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

type ids struct{ stage, home, away string }

func resolveFixture(t *testing.T, pg *sql.DB, stage, home, away string) ids {
	t.Helper()
	r := identity.NewResolver(pg)
	ctx := context.Background()

	sid, err := r.ResolveStage(ctx, stage)
	require.NoError(t, err)
	hid, err := r.ResolveTeam(ctx, home)
	require.NoError(t, err)
	aid, err := r.ResolveTeam(ctx, away)
	require.NoError(t, err)
	return ids{stage: sid, home: hid, away: aid}
}

func TestUpsertResult_FirstObservationInsertsCompleted(t *testing.T) {
	pg := testDB(t)
	repo := NewPostgres(pg)
	ctx := context.Background()
	f := resolveFixture(t, pg, "Premier League", "Arsenal", "Chelsea")
	day := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

	id, result, err := repo.UpsertResult(ctx, f.stage, f.home, f.away, day, "2:1")
	require.NoError(t, err)
	require.Equal(t, ResultHomeWin, result)

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, m.Status)
	require.Equal(t, 2, m.HomeScore)
	require.Equal(t, 1, m.AwayScore)
	require.True(t, m.IsFinal)
	require.Equal(t, "arsenal", m.HomeTeamName)
}

func TestUpsertResult_SameKeyIsDeduplicated(t *testing.T) {
	pg := testDB(t)
	repo := NewPostgres(pg)
	ctx := context.Background()
	f := resolveFixture(t, pg, "Premier League", "Arsenal", "Chelsea")
	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	id1, _, err := repo.UpsertResult(ctx, f.stage, f.home, f.away, day, "1:1")
	require.NoError(t, err)

	// mesma chave natural no mesmo dia, placar corrigido
	id2, result, err := repo.UpsertResult(ctx, f.stage, f.home, f.away, day.Add(2*time.Hour), "1:2")
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Equal(t, ResultAwayWin, result)

	ms, err := repo.RecentCompleted(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	require.Equal(t, 2, ms[0].AwayScore)
}

func TestUpsertResult_AdoptsScheduledMatch(t *testing.T) {
	pg := testDB(t)
	repo := NewPostgres(pg)
	ctx := context.Background()
	f := resolveFixture(t, pg, "Copa", "Santos", "Vasco")

	// odds chegaram primeiro: partida nasce SCHEDULED e sem data
	scheduledID, err := repo.EnsureScheduled(ctx, f.stage, f.home, f.away)
	require.NoError(t, err)

	// EnsureScheduled é idempotente enquanto a partida está aberta
	again, err := repo.EnsureScheduled(ctx, f.stage, f.home, f.away)
	require.NoError(t, err)
	require.Equal(t, scheduledID, again)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	id, result, err := repo.UpsertResult(ctx, f.stage, f.home, f.away, day, "0:0")
	require.NoError(t, err)
	require.Equal(t, scheduledID, id)
	require.Equal(t, ResultDraw, result)

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, m.Status)
	require.NotNil(t, m.ScheduledDate)

	// confronto encerrado não conta mais como aberto
	next, err := repo.EnsureScheduled(ctx, f.stage, f.home, f.away)
	require.NoError(t, err)
	require.NotEqual(t, scheduledID, next)
}

func TestCompletedByStage_GroupsByStageName(t *testing.T) {
	pg := testDB(t)
	repo := NewPostgres(pg)
	ctx := context.Background()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	a := resolveFixture(t, pg, "Estadual", "Santos", "Vasco")
	b := resolveFixture(t, pg, "Brasileirão", "Flamengo", "Palmeiras")
	c := resolveFixture(t, pg, "Brasileirão", "Grêmio", "Internacional")

	_, _, err := repo.UpsertResult(ctx, a.stage, a.home, a.away, day, "3:0")
	require.NoError(t, err)
	_, _, err = repo.UpsertResult(ctx, b.stage, b.home, b.away, day, "1:1")
	require.NoError(t, err)
	_, _, err = repo.UpsertResult(ctx, c.stage, c.home, c.away, day, "0:2")
	require.NoError(t, err)

	grouped, err := repo.CompletedByStage(ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Equal(t, "brasileirão", grouped[0].StageName)
	require.Len(t, grouped[0].Matches, 2)
	require.Equal(t, "estadual", grouped[1].StageName)
	require.Len(t, grouped[1].Matches, 1)
}
