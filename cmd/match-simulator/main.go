package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/shared/config"
	sharedkafka "github.com/footysim/bet-engine/internal/shared/kafka"
	"github.com/footysim/bet-engine/internal/shared/logger"
	"github.com/footysim/bet-engine/internal/shared/metrics"
	"github.com/footysim/bet-engine/pkg/contracts/events"
)

var (
	// Catálogo fixo de estágios e times para geração de partidas simuladas
	stages = []string{"Brasileirão Série A", "Copa do Brasil", "Estadual"}
	teams  = []string{
		"Flamengo", "Palmeiras", "Grêmio", "Internacional",
		"Corinthians", "Santos", "São Paulo", "Vasco",
		"Botafogo", "Fluminense", "Cruzeiro", "Atlético-MG",
	}

	// Métricas Prometheus para monitoramento da publicação
	oddsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_odds_observations_published_total",
		Help: "Total de observações de odds publicadas",
	})
	matchesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_match_observations_published_total",
		Help: "Total de resultados finais publicados",
	})
	publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_publish_errors_total",
		Help: "Falhas de publicação no Kafka",
	})
)

// fixture é uma partida em andamento no simulador. As odds derivam
// (random walk) a cada tick até o apito final.
type fixture struct {
	stage    string
	home     string
	away     string
	homeOdds float64
	drawOdds float64
	awayOdds float64
	ticks    int // ticks restantes até o resultado final
}

func newFixture() fixture {
	hi := rand.Intn(len(teams))
	ai := rand.Intn(len(teams))
	for ai == hi {
		ai = rand.Intn(len(teams))
	}
	return fixture{
		stage:    stages[rand.Intn(len(stages))],
		home:     teams[hi],
		away:     teams[ai],
		homeOdds: rnd(1.40, 3.50),
		drawOdds: rnd(2.50, 4.50),
		awayOdds: rnd(2.00, 5.00),
		ticks:    6 + rand.Intn(10),
	}
}

// drift empurra uma odd pra cima ou pra baixo mantendo piso de 1.01
func drift(o float64) float64 {
	o += rnd(-0.15, 0.15)
	if o < 1.01 {
		o = 1.01
	}
	return o
}

// gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

// placar final simulado, viés pro mandante
func finalScore() string {
	return fmt.Sprintf("%d:%d", rand.Intn(4), rand.Intn(3))
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(oddsPublished, matchesPublished, publishErrors)

	oddsWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOddsObservations)
	defer oddsWriter.Close()
	matchWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchObservations)
	defer matchWriter.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Pool de partidas simultâneas; cada uma encerra após N ticks e é
	// substituída por um novo confronto
	fixtures := make([]fixture, 4)
	for i := range fixtures {
		fixtures[i] = newFixture()
	}

	log.Info("match simulator running",
		zap.String("odds_topic", cfg.TopicOddsObservations),
		zap.String("match_topic", cfg.TopicMatchObservations),
		zap.Int("fixtures", len(fixtures)),
	)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("match simulator stopped")
			return
		case <-ticker.C:
		}

		for i := range fixtures {
			f := &fixtures[i]
			f.homeOdds = drift(f.homeOdds)
			f.drawOdds = drift(f.drawOdds)
			f.awayOdds = drift(f.awayOdds)

			publishOdds(ctx, log, oddsWriter, cfg.ServiceName, *f)

			f.ticks--
			if f.ticks > 0 {
				continue
			}

			publishResult(ctx, log, matchWriter, cfg.ServiceName, *f)
			fixtures[i] = newFixture()
		}
	}
}

func publishOdds(ctx context.Context, log *zap.Logger, w *sharedkafka.Writer, source string, f fixture) {
	home, draw, away := f.homeOdds, f.drawOdds, f.awayOdds
	obs := events.OddsObservation{
		StageName:    f.stage,
		HomeTeamName: f.home,
		AwayTeamName: f.away,
		HomeOdds:     &home,
		DrawOdds:     &draw,
		AwayOdds:     &away,
		ObservedAt:   time.Now().UTC(),
		Source:       source,
	}
	payload, _ := json.Marshal(obs)

	key := f.stage + "|" + f.home + "|" + f.away
	if err := sharedkafka.WriteJSON(ctx, w, key, payload); err != nil {
		publishErrors.Inc()
		log.Warn("odds publish failed", zap.String("key", key), zap.Error(err))
		return
	}
	oddsPublished.Inc()
}

func publishResult(ctx context.Context, log *zap.Logger, w *sharedkafka.Writer, source string, f fixture) {
	obs := events.MatchObservation{
		StageName:     f.stage,
		HomeTeamName:  f.home,
		AwayTeamName:  f.away,
		FullTimeScore: finalScore(),
		ObservedAt:    time.Now().UTC(),
		Source:        source,
	}
	payload, _ := json.Marshal(obs)

	key := f.stage + "|" + f.home + "|" + f.away
	if err := sharedkafka.WriteJSON(ctx, w, key, payload); err != nil {
		publishErrors.Inc()
		log.Warn("result publish failed", zap.String("key", key), zap.Error(err))
		return
	}
	matchesPublished.Inc()
	log.Info("full time",
		zap.String("stage", f.stage),
		zap.String("home", f.home),
		zap.String("away", f.away),
		zap.String("score", obs.FullTimeScore),
	)
}
