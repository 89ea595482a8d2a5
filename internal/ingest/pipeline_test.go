package ingest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/bets"
	"github.com/footysim/bet-engine/internal/identity"
	"github.com/footysim/bet-engine/internal/ledger"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
	"github.com/footysim/bet-engine/internal/settlement"
	"github.com/footysim/bet-engine/internal/shared/db"
	"github.com/footysim/bet-engine/pkg/contracts/events"
)

const testStartingBalance = int64(100000)

type testStack struct {
	pg       *sql.DB
	pipeline *Pipeline
	engine   *bets.Engine
	funds    *ledger.Manager
	matches  *matches.Postgres
}

func newTestStack(t *testing.T) *testStack {
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

	log := zap.NewNop()
	m := matches.NewPostgres(pg)
	o := odds.NewLog(pg)
	f := ledger.NewManager(pg)
	e := bets.NewEngine(pg, m, o, f, log)
	c := settlement.NewCoordinator(log, e, m)

	return &testStack{
		pg: pg,
		pipeline: &Pipeline{
			Log:         log,
			Resolver:    identity.NewResolver(pg),
			Matches:     m,
			OddsLog:     o,
			Coordinator: c,
		},
		engine:  e,
		funds:   f,
		matches: m,
	}
}

func odd(v float64) *float64 { return &v }

// Fluxo completo: odds criam a partida, aposta entra, resultado chega e a
// liquidação roda na sequência.
func TestObservationFlow(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	err := s.pipeline.ApplyOddsObservation(ctx, events.OddsObservation{
		StageName:    "Premier League",
		HomeTeamName: "Arsenal",
		AwayTeamName: "Chelsea",
		HomeOdds:     odd(2.50),
		DrawOdds:     odd(3.20),
		AwayOdds:     odd(2.80),
		ObservedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	scheduled, err := s.matches.Scheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	bet, err := s.engine.Place(ctx, scheduled[0].ID, bets.SideHome, 5000)
	require.NoError(t, err)

	// grafias diferentes do mesmo confronto: resolvem pra mesma partida
	err = s.pipeline.ApplyMatchObservation(ctx, events.MatchObservation{
		StageName:     "  premier league ",
		HomeTeamName:  "ARSENAL",
		AwayTeamName:  "chelsea",
		FullTimeScore: "2:0",
		ObservedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := s.engine.GetByID(ctx, bet.ID)
	require.NoError(t, err)
	require.Equal(t, bets.StatusWon, got.Status)

	a, err := s.funds.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, testStartingBalance-5000+7500, a.BalanceCents)

	// nenhuma partida duplicada foi criada
	var n int
	require.NoError(t, s.pg.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n))
	require.Equal(t, 1, n)
}

// Placar tardio repetido não liquida de novo nem duplica partida.
func TestReplayedResultIsIdempotent(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	obs := events.MatchObservation{
		StageName:     "Copa",
		HomeTeamName:  "Santos",
		AwayTeamName:  "Vasco",
		FullTimeScore: "1:1",
		ObservedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.pipeline.ApplyMatchObservation(ctx, obs))
	require.NoError(t, s.pipeline.ApplyMatchObservation(ctx, obs))

	var n int
	require.NoError(t, s.pg.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n))
	require.Equal(t, 1, n)

	a, err := s.funds.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, testStartingBalance, a.BalanceCents)
}

// Observação sem a odd do lado não bloqueia o snapshot: odds parciais são
// anexadas como estão.
func TestPartialOddsObservation(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	err := s.pipeline.ApplyOddsObservation(ctx, events.OddsObservation{
		StageName:    "Estadual",
		HomeTeamName: "Flamengo",
		AwayTeamName: "Botafogo",
		HomeOdds:     odd(1.60),
		ObservedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	scheduled, err := s.matches.Scheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	snap, err := s.pipeline.OddsLog.LatestActive(ctx, scheduled[0].ID)
	require.NoError(t, err)
	require.Equal(t, 1.60, *snap.HomeOdds)
	require.Nil(t, snap.DrawOdds)
}
