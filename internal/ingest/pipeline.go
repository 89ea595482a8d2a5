package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/footysim/bet-engine/internal/broadcast"
	"github.com/footysim/bet-engine/internal/identity"
	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
	"github.com/footysim/bet-engine/internal/settlement"
	"github.com/footysim/bet-engine/pkg/contracts/events"
)

// Pipeline consome observações do Kafka e alimenta o engine: resolve
// identidades, mantém o ledger de partidas e o log de odds, e dispara a
// liquidação quando um resultado final chega.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Pipeline struct {
	Log         *zap.Logger
	Resolver    *identity.Resolver
	Matches     *matches.Postgres
	OddsLog     *odds.Log
	OddsCache   *odds.Cache
	Coordinator *settlement.Coordinator

	// broadcast opcional de snapshots (nil desliga)
	Broadcast settlement.Broadcaster
	Channel   string

	OnMatchApplied func()       // métricas (counter++)
	OnOddsApplied  func()       // métricas
	OnError        func(string) // métricas por fase
}

// RunMatchConsumer processa o tópico de observações de resultado.
// Loop sequencial: uma observação por vez, na ordem do tópico.
func (p *Pipeline) RunMatchConsumer(ctx context.Context, r *kafka.Reader) error {
	return p.run(ctx, r, "match_observation", func(ctx context.Context, value []byte) error {
		var ev events.MatchObservation
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return p.ApplyMatchObservation(ctx, ev)
	})
}

// RunOddsConsumer processa o tópico de observações de odds.
func (p *Pipeline) RunOddsConsumer(ctx context.Context, r *kafka.Reader) error {
	return p.run(ctx, r, "odds_observation", func(ctx context.Context, value []byte) error {
		var ev events.OddsObservation
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return p.ApplyOddsObservation(ctx, ev)
	})
}

func (p *Pipeline) run(ctx context.Context, r *kafka.Reader, stage string, apply func(context.Context, []byte) error) error {
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.String("stage", stage), zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := apply(ctx, m.Value); err != nil {
			// a fonte é ruidosa e o consumo é at-least-once: loga e segue;
			// a liquidação idempotente torna o replay seguro
			p.Log.Warn("observation not applied", zap.String("stage", stage), zap.Error(err))
			if p.OnError != nil {
				p.OnError(stage)
			}
		}
	}
}

// ApplyMatchObservation grava o resultado observado e dispara a
// liquidação. Dois passos explícitos: upsert primeiro, liquidação
// depois — testáveis separadamente.
// Se a resolução de identidade falhar, nada dependente é criado.
func (p *Pipeline) ApplyMatchObservation(ctx context.Context, ev events.MatchObservation) error {
	stageID, homeID, awayID, err := p.resolve(ctx, ev.StageName, ev.HomeTeamName, ev.AwayTeamName)
	if err != nil {
		return err
	}

	observedAt := ev.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	matchID, result, err := p.Matches.UpsertResult(ctx, stageID, homeID, awayID, observedAt, ev.FullTimeScore)
	if err != nil {
		return err
	}
	if p.OnMatchApplied != nil {
		p.OnMatchApplied()
	}

	return p.Coordinator.OnMatchCompleted(ctx, matchID, result)
}

// ApplyOddsObservation garante a partida SCHEDULED do confronto e anexa
// um snapshot novo ao log (sempre insere, mesmo odds repetidas).
func (p *Pipeline) ApplyOddsObservation(ctx context.Context, ev events.OddsObservation) error {
	stageID, homeID, awayID, err := p.resolve(ctx, ev.StageName, ev.HomeTeamName, ev.AwayTeamName)
	if err != nil {
		return err
	}

	matchID, err := p.Matches.EnsureScheduled(ctx, stageID, homeID, awayID)
	if err != nil {
		return err
	}

	snap, err := p.OddsLog.Append(ctx, matchID, ev.HomeOdds, ev.DrawOdds, ev.AwayOdds)
	if err != nil {
		return err
	}
	if p.OnOddsApplied != nil {
		p.OnOddsApplied()
	}

	// cache e broadcast são best-effort: falha não invalida o snapshot
	if p.OddsCache != nil {
		if err := p.OddsCache.SetCurrent(ctx, snap); err != nil {
			p.Log.Warn("odds cache set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
		}
	}
	p.publishSnapshot(ctx, snap)
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, stage, home, away string) (stageID, homeID, awayID string, err error) {
	if stageID, err = p.Resolver.ResolveStage(ctx, stage); err != nil {
		return "", "", "", err
	}
	if homeID, err = p.Resolver.ResolveTeam(ctx, home); err != nil {
		return "", "", "", err
	}
	if awayID, err = p.Resolver.ResolveTeam(ctx, away); err != nil {
		return "", "", "", err
	}
	return stageID, homeID, awayID, nil
}

func (p *Pipeline) publishSnapshot(ctx context.Context, snap *odds.Snapshot) {
	if p.Broadcast == nil {
		return
	}

	msg := broadcast.Update{
		Type:    broadcast.TypeOddsSnapshot,
		MatchID: snap.MatchID,
		Payload: snap,
	}
	b, _ := json.Marshal(msg)

	pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcast.Publish(pctx, p.Channel, b); err != nil {
		p.Log.Warn("snapshot broadcast failed", zap.Error(err))
	}
}
