// Package storage provides the Redis-backed implementation of the engine's
// Storage contract. Entities are stored as JSON documents; week, year and
// money live in a small counter keyspace.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/studiosim/studio-engine/pkg/event"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/storage"
)

// RedisStorage implements storage.Storage on a Redis client.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStorage{client: rdb, logger: logger}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Generic JSON document helpers. All entity operations reduce to these.

func (r *RedisStorage) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) getJSON(ctx context.Context, key string, v any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) listJSON(ctx context.Context, pattern string, visit func([]byte) error) error {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", iter.Val(), err)
		}
		if err := visit(data); err != nil {
			r.logger.Warn("Skipping undecodable record", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return nil
}

// Talent operations

func (r *RedisStorage) GetTalent(ctx context.Context, id int64) (*sim.Talent, error) {
	var t sim.Talent
	if err := r.getJSON(ctx, fmt.Sprintf("talent:%d", id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RedisStorage) SaveTalent(ctx context.Context, t *sim.Talent) error {
	return r.setJSON(ctx, fmt.Sprintf("talent:%d", t.ID), t)
}

func (r *RedisStorage) ListTalents(ctx context.Context) ([]*sim.Talent, error) {
	var out []*sim.Talent
	err := r.listJSON(ctx, "talent:*", func(data []byte) error {
		var t sim.Talent
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		out = append(out, &t)
		return nil
	})
	return out, err
}

// Scene operations

func (r *RedisStorage) GetScene(ctx context.Context, id int64) (*sim.Scene, error) {
	var s sim.Scene
	if err := r.getJSON(ctx, fmt.Sprintf("scene:%d", id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStorage) SaveScene(ctx context.Context, s *sim.Scene) error {
	return r.setJSON(ctx, fmt.Sprintf("scene:%d", s.ID), s)
}

func (r *RedisStorage) ListScenes(ctx context.Context) ([]*sim.Scene, error) {
	var out []*sim.Scene
	err := r.listJSON(ctx, "scene:*", func(data []byte) error {
		var s sim.Scene
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out = append(out, &s)
		return nil
	})
	return out, err
}

func (r *RedisStorage) DeleteScene(ctx context.Context, id int64) error {
	if err := r.client.Del(ctx, fmt.Sprintf("scene:%d", id)).Err(); err != nil {
		return fmt.Errorf("failed to delete scene %d: %w", id, err)
	}
	return nil
}

// Shooting bloc operations

func (r *RedisStorage) GetBloc(ctx context.Context, id int64) (*sim.ShootingBloc, error) {
	var b sim.ShootingBloc
	if err := r.getJSON(ctx, fmt.Sprintf("bloc:%d", id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *RedisStorage) SaveBloc(ctx context.Context, b *sim.ShootingBloc) error {
	return r.setJSON(ctx, fmt.Sprintf("bloc:%d", b.ID), b)
}

func (r *RedisStorage) ListBlocs(ctx context.Context) ([]*sim.ShootingBloc, error) {
	var out []*sim.ShootingBloc
	err := r.listJSON(ctx, "bloc:*", func(data []byte) error {
		var b sim.ShootingBloc
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		out = append(out, &b)
		return nil
	})
	return out, err
}

// Market group state

func (r *RedisStorage) GetMarketState(ctx context.Context, name string) (*market.GroupState, error) {
	var s market.GroupState
	if err := r.getJSON(ctx, "market:"+name, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStorage) SaveMarketState(ctx context.Context, s *market.GroupState) error {
	return r.setJSON(ctx, "market:"+s.Name, s)
}

// Pending interactive events. No TTL: the game waits indefinitely for the
// player's choice.

func (r *RedisStorage) SavePendingEvent(ctx context.Context, p *event.Pending) error {
	return r.setJSON(ctx, "pending:"+p.Token.String(), p)
}

func (r *RedisStorage) LoadPendingEvent(ctx context.Context, token uuid.UUID) (*event.Pending, error) {
	var p event.Pending
	if err := r.getJSON(ctx, "pending:"+token.String(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStorage) DeletePendingEvent(ctx context.Context, token uuid.UUID) error {
	if err := r.client.Del(ctx, "pending:"+token.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete pending event %s: %w", token, err)
	}
	return nil
}

// Counter store

func (r *RedisStorage) GetCounter(ctx context.Context, name string) (int64, error) {
	v, err := r.client.Get(ctx, "counter:"+name).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", name, err)
	}
	return v, nil
}

func (r *RedisStorage) SetCounter(ctx context.Context, name string, value int64) error {
	if err := r.client.Set(ctx, "counter:"+name, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set counter %s: %w", name, err)
	}
	return nil
}

func (r *RedisStorage) IncrCounter(ctx context.Context, name string, delta int64) (int64, error) {
	v, err := r.client.IncrBy(ctx, "counter:"+name, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return v, nil
}
