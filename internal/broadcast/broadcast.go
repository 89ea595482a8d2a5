package broadcast

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Tipos de mensagem transmitidos no canal Pub/Sub do engine.
const (
	TypeOddsSnapshot     = "odds_snapshot"
	TypeSettlementResult = "settlement_result"
)

// Update é o envelope publicado no Redis Pub/Sub e repassado pelo hub
// WebSocket do bet-api aos clientes inscritos na partida.
type Update struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Payload any    `json:"payload"`
}

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}
