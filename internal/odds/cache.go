package odds

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache mantém o snapshot mais recente de cada partida no Redis.
// Somente leitura de conveniência: a colocação de aposta sempre consulta
// o log no Postgres, que é a fonte autoritativa.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(c *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: c, TTL: ttl}
}

func key(matchID string) string { return "odds:current:" + matchID }

// SetCurrent armazena o snapshot corrente da partida com TTL definido.
func (c *Cache) SetCurrent(ctx context.Context, s *Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(s.MatchID), b, c.TTL).Err()
}

// GetCurrent busca o snapshot da partida; ok=false em cache miss.
func (c *Cache) GetCurrent(ctx context.Context, matchID string) (*Snapshot, bool, error) {
	b, err := c.Client.Get(ctx, key(matchID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}
