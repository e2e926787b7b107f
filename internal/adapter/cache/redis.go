package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"resume-builder/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "rb:ws:"

// Snapshots keeps workspace documents in Redis. Without a reachable server
// every call is a no-op.
type Snapshots struct {
	client *redis.Client
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

// NewSnapshots connects to addr. An empty addr or a failed ping yields a
// bypassing store.
func NewSnapshots(ctx context.Context, addr, password string, logger *zap.Logger) *Snapshots {
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		return &Snapshots{logger: logger}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: 0})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, workspace snapshots disabled", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return &Snapshots{logger: logger}
	}
	return &Snapshots{client: client, logger: logger}
}

func (s *Snapshots) Enabled() bool { return s != nil && s.client != nil }

func (s *Snapshots) warnUnavailableOnce(err error) {
	if s.warnedUnavailable.CompareAndSwap(false, true) {
		s.logger.Warn("redis unavailable, bypassing snapshots", zap.Error(err))
	}
}

func (s *Snapshots) Get(ctx context.Context, workspaceID string) (model.Resume, bool, error) {
	if !s.Enabled() {
		return model.Resume{}, false, nil
	}
	b, err := s.client.Get(ctx, keyPrefix+workspaceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Resume{}, false, nil
		}
		s.warnUnavailableOnce(err)
		return model.Resume{}, false, err
	}
	var doc model.Resume
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.Resume{}, false, err
	}
	return doc, true, nil
}

func (s *Snapshots) Put(ctx context.Context, workspaceID string, doc model.Resume, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+workspaceID, b, ttl).Err(); err != nil {
		s.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (s *Snapshots) Delete(ctx context.Context, workspaceID string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+workspaceID).Err(); err != nil {
		s.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (s *Snapshots) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
