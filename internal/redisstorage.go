package internal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisStorage keeps one hash per payment and, per processor, a sorted set
// of correlation ids scored by requestedAt in milliseconds.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(ctx context.Context, addr string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr: strings.TrimPrefix(addr, "redis://"),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return &RedisStorage{client: client}, nil
}

func paymentKey(id string) string {
	return "payment:" + id
}

func timeSetKey(p ProcessorId) string {
	return "payments:time:" + string(p.Name())
}

func (s *RedisStorage) Save(ctx context.Context, pp ProcessedPayment) error {
	id := pp.CorrelationId.String()

	created, err := s.client.HSetNX(ctx, paymentKey(id), "correlationId", id).Result()
	if err != nil {
		return fmt.Errorf("failed to store payment: %w", err)
	}
	if !created {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, paymentKey(id), map[string]any{
		"amount":      pp.Amount.String(),
		"service":     pp.Processor.Label(),
		"requestedAt": pp.RequestedAt.UnixMilli(),
	})
	pipe.ZAdd(ctx, timeSetKey(pp.Processor), redis.Z{
		Score:  float64(pp.RequestedAt.UnixMilli()),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add to time set: %w", err)
	}
	return nil
}

func scoreBound(t *time.Time, open string) string {
	if t == nil {
		return open
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *RedisStorage) GetSummary(ctx context.Context, from, to *time.Time) (Summary, error) {
	summary := NewSummary()
	for _, p := range []ProcessorId{Default, Fallback} {
		ids, err := s.client.ZRangeByScore(ctx, timeSetKey(p), &redis.ZRangeBy{
			Min: scoreBound(from, "-inf"),
			Max: scoreBound(to, "+inf"),
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to query %s payments: %w", p.Name(), err)
		}
		if len(ids) == 0 {
			continue
		}

		pipe := s.client.Pipeline()
		cmds := make([]*redis.StringCmd, len(ids))
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, paymentKey(id), "amount")
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to get %s payment amounts: %w", p.Name(), err)
		}

		for _, cmd := range cmds {
			amount, err := decimal.NewFromString(cmd.Val())
			if err != nil {
				return nil, fmt.Errorf("invalid amount %q: %w", cmd.Val(), err)
			}
			summary.add(p, amount)
		}
	}
	return summary, nil
}

func (s *RedisStorage) CleanUp(ctx context.Context) error {
	var keys []string
	iter := s.client.Scan(ctx, 0, "payment*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to list payment keys: %w", err)
	}

	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to purge payments: %w", err)
		}
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
