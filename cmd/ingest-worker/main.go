package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/bets"
	"github.com/footysim/bet-engine/internal/broadcast"
	"github.com/footysim/bet-engine/internal/identity"
	"github.com/footysim/bet-engine/internal/ingest"
	"github.com/footysim/bet-engine/internal/ledger"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
	"github.com/footysim/bet-engine/internal/settlement"
	sharedcache "github.com/footysim/bet-engine/internal/shared/cache"
	"github.com/footysim/bet-engine/internal/shared/config"
	"github.com/footysim/bet-engine/internal/shared/db"
	sharedkafka "github.com/footysim/bet-engine/internal/shared/kafka"
	"github.com/footysim/bet-engine/internal/shared/logger"
	"github.com/footysim/bet-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres (com migração) e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.Migrate(pg, cfg.StartingBalanceCents); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Camadas do engine
	resolver := identity.NewResolver(pg)
	matchLedger := matches.NewPostgres(pg)
	oddsLog := odds.NewLog(pg)
	oddsCache := odds.NewCache(redisClient, 60*time.Second)
	funds := ledger.NewManager(pg)
	engine := bets.NewEngine(pg, matchLedger, oddsLog, funds, log)

	// Métricas Prometheus para monitoramento da ingestão e liquidação
	matchesApplied := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_match_observations_applied_total", Help: "resultados aplicados"})
	oddsApplied := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_odds_observations_applied_total", Help: "snapshots anexados"})
	settledBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas por desfecho"}, []string{"outcome"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	settleErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "falhas de liquidação"})
	prometheus.MustRegister(matchesApplied, oddsApplied, settledBy, errorsBy, settleErrors)

	// Broadcaster Redis Pub/Sub (consumido pelo WS do bet-api)
	broadcaster := broadcast.NewRedisBroadcaster(redisClient)

	coordinator := settlement.NewCoordinator(log, engine, matchLedger)
	coordinator.Broadcast = broadcaster
	coordinator.Channel = cfg.RedisPubSubChannel
	coordinator.OnSettled = func(outcome string) { settledBy.WithLabelValues(outcome).Inc() }
	coordinator.OnError = func() { settleErrors.Inc() }

	pipeline := &ingest.Pipeline{
		Log:            log,
		Resolver:       resolver,
		Matches:        matchLedger,
		OddsLog:        oddsLog,
		OddsCache:      oddsCache,
		Coordinator:    coordinator,
		Broadcast:      broadcaster,
		Channel:        cfg.RedisPubSubChannel,
		OnMatchApplied: func() { matchesApplied.Inc() },
		OnOddsApplied:  func() { oddsApplied.Inc() },
		OnError:        func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Consumers Kafka (consumer group ingest-worker)
	matchReader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchObservations, "ingest-worker")
	defer matchReader.Close()
	oddsReader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicOddsObservations, "ingest-worker")
	defer oddsReader.Close()

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Varredura de reconciliação: reaplica liquidação em partidas
	// encerradas que ficaram com aposta pendente
	go coordinator.RunReconciler(ctx, cfg.ReconcileInterval)

	errc := make(chan error, 2)
	go func() { errc <- pipeline.RunMatchConsumer(ctx, matchReader) }()
	go func() { errc <- pipeline.RunOddsConsumer(ctx, oddsReader) }()

	log.Info("ingest-worker started",
		zap.String("match_topic", cfg.TopicMatchObservations),
		zap.String("odds_topic", cfg.TopicOddsObservations),
	)

	if err := <-errc; err != nil && ctx.Err() == nil {
		log.Fatal("pipeline stopped with error", zap.Error(err))
	}
	log.Info("ingest-worker stopped")
}
