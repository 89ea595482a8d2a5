package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	bhttp "github.com/footysim/bet-engine/internal/bet-api/http"
	"github.com/footysim/bet-engine/internal/bet-api/ws"
	"github.com/footysim/bet-engine/internal/bets"
	"github.com/footysim/bet-engine/internal/ledger"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
	sharedcache "github.com/footysim/bet-engine/internal/shared/cache"
	"github.com/footysim/bet-engine/internal/shared/config"
	"github.com/footysim/bet-engine/internal/shared/db"
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

	matchLedger := matches.NewPostgres(pg)
	oddsLog := odds.NewLog(pg)
	oddsCache := odds.NewCache(redisClient, 60*time.Second)
	funds := ledger.NewManager(pg)
	engine := bets.NewEngine(pg, matchLedger, oddsLog, funds, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hub WebSocket alimentado pelo canal Pub/Sub do ingest-worker
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	server := bhttp.NewServer(log, matchLedger, oddsLog, oddsCache, engine, funds, hub.HandleWS)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("bet-api listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("bet-api stopped")
}
