package hitl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	requestKeyPrefix = "hitl:req:"
	runKeyPrefix     = "hitl:run:"
)

// RedisStore persists requests in Redis so a separate process (an
// operator CLI, a web console) can list and answer them. Requests are
// stored as JSON under hitl:req:<id> with a per-run index set under
// hitl:run:<runID>.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps requests
// until deleted.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "hitl_redis_store")),
	}
}

func requestKey(id string) string { return requestKeyPrefix + id }
func runKey(runID string) string  { return runKeyPrefix + runID }

func (s *RedisStore) write(ctx context.Context, req *Request, index bool) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request %s: %w", req.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, requestKey(req.ID), payload, s.ttl)
	if index {
		pipe.SAdd(ctx, runKey(req.RunID), req.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, runKey(req.RunID), s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store request %s: %w", req.ID, err)
	}
	return nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, req *Request) error {
	if err := s.write(ctx, req, true); err != nil {
		return err
	}
	s.logger.Debug("request saved",
		zap.String("request_id", req.ID),
		zap.String("node", req.Node),
	)
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*Request, error) {
	payload, err := s.client.Get(ctx, requestKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", id, err)
	}
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", id, err)
	}
	return &req, nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, req *Request) error {
	if _, err := s.Load(ctx, req.ID); err != nil {
		return err
	}
	return s.write(ctx, req, false)
}

// ListPending implements Store.
func (s *RedisStore) ListPending(ctx context.Context, runID string) ([]*Request, error) {
	ids, err := s.client.SMembers(ctx, runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	var pending []*Request
	for _, id := range ids {
		req, err := s.Load(ctx, id)
		if errors.Is(err, ErrRequestNotFound) {
			// Expired entry still referenced by the index.
			continue
		}
		if err != nil {
			return nil, err
		}
		if req.Status == StatusPending {
			pending = append(pending, req)
		}
	}
	return pending, nil
}
