package settlement

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/bets"
	"github.com/footysim/bet-engine/internal/broadcast"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/pkg/contracts/events"
)

// Settler é o que o coordenador precisa do engine de apostas.
type Settler interface {
	SettleForMatch(ctx context.Context, matchID, result string) ([]bets.Settled, error)
}

// MatchSource fornece as partidas encerradas que ainda têm aposta
// pendente (alvo da varredura de reconciliação).
type MatchSource interface {
	PendingSettlement(ctx context.Context) ([]matches.Match, error)
}

// Broadcaster publica resultados de liquidação no canal Pub/Sub.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Coordinator dispara a liquidação de apostas quando uma partida chega a
// resultado final. A liquidação de uma mesma partida nunca roda duas
// vezes ao mesmo tempo (lock por partida); partidas diferentes podem
// liquidar em paralelo.
type Coordinator struct {
	Log     *zap.Logger
	Settler Settler
	Matches MatchSource

	// broadcast opcional de resultados (nil desliga)
	Broadcast Broadcaster
	Channel   string

	OnSettled func(outcome string) // métricas (counter++ por desfecho)
	OnError   func()               // métricas

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(log *zap.Logger, s Settler, m MatchSource) *Coordinator {
	return &Coordinator{Log: log, Settler: s, Matches: m, locks: make(map[string]*sync.Mutex)}
}

// matchLock devolve o mutex da partida, criando na primeira vez.
func (c *Coordinator) matchLock(matchID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[matchID] = l
	}
	return l
}

// OnMatchCompleted liquida todas as apostas pendentes da partida.
// Chamada explícita logo após o upsert do resultado — dois passos
// visíveis, sem efeito colateral escondido. Idempotente: re-executar não
// encontra apostas PENDING e vira no-op.
func (c *Coordinator) OnMatchCompleted(ctx context.Context, matchID, result string) error {
	l := c.matchLock(matchID)
	l.Lock()
	defer l.Unlock()

	settled, err := c.Settler.SettleForMatch(ctx, matchID, result)
	if err != nil {
		if c.OnError != nil {
			c.OnError()
		}
		return err
	}
	if len(settled) == 0 {
		return nil
	}

	for _, s := range settled {
		if c.OnSettled != nil {
			c.OnSettled(s.Outcome)
		}
		c.publish(ctx, matchID, s)
	}

	c.Log.Info("match settled",
		zap.String("match_id", matchID),
		zap.String("result", result),
		zap.Int("bets_settled", len(settled)),
	)
	return nil
}

func (c *Coordinator) publish(ctx context.Context, matchID string, s bets.Settled) {
	if c.Broadcast == nil {
		return
	}

	msg := broadcast.Update{
		Type:    broadcast.TypeSettlementResult,
		MatchID: matchID,
		Payload: events.SettlementResult{
			BetID:             s.Bet.ID,
			MatchID:           matchID,
			Side:              s.Bet.Side,
			Status:            s.Outcome,
			ActualPayoutCents: s.PayoutCents,
			ProfitLossCents:   s.ProfitLossCents,
			Ts:                time.Now(),
		},
	}
	b, _ := json.Marshal(msg)

	pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := c.Broadcast.Publish(pctx, c.Channel, b); err != nil {
		c.Log.Warn("settlement broadcast failed", zap.Error(err))
	}
}

// RunReconciler varre periodicamente partidas COMPLETED que ainda têm
// aposta PENDING e reaplica a liquidação. Seguro por construção: só
// apostas PENDING são tocadas. Cobre apostas colocadas na janela entre a
// checagem de status e o encerramento da partida.
func (c *Coordinator) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.reconcileOnce(ctx)
		}
	}
}

func (c *Coordinator) reconcileOnce(ctx context.Context) {
	ms, err := c.Matches.PendingSettlement(ctx)
	if err != nil {
		c.Log.Warn("reconcile scan failed", zap.Error(err))
		if c.OnError != nil {
			c.OnError()
		}
		return
	}
	for _, m := range ms {
		if m.Result == nil {
			continue
		}
		if err := c.OnMatchCompleted(ctx, m.ID, *m.Result); err != nil {
			c.Log.Warn("reconcile settle failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}
}
