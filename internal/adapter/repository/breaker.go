package repository

import (
	"context"
	"errors"
	"time"

	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrStoreUnavailable is returned while the breaker is open.
var ErrStoreUnavailable = errors.New("document store temporarily unavailable")

// BreakerConfig tunes the circuit breaker around the document store.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerRepo trips after repeated network failures so a dead store fails
// fast instead of stalling every save.
type BreakerRepo struct {
	next usecase.ResumeRepository
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerRepo(next usecase.ResumeRepository, cfg BreakerConfig, logger *zap.Logger) *BreakerRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
		// only remote failures count; not-found is an answer
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsNetwork(err)
		},
	})
	return &BreakerRepo{next: next, cb: cb}
}

func (b *BreakerRepo) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.NetworkError{Op: "document store", Err: ErrStoreUnavailable}
	}
	return out, err
}

func (b *BreakerRepo) LatestByUser(ctx context.Context, userID string) (*domain.StoredResume, error) {
	out, err := b.execute(func() (interface{}, error) { return b.next.LatestByUser(ctx, userID) })
	if err != nil {
		return nil, err
	}
	return out.(*domain.StoredResume), nil
}

func (b *BreakerRepo) Insert(ctx context.Context, s *domain.StoredResume) error {
	_, err := b.execute(func() (interface{}, error) { return nil, b.next.Insert(ctx, s) })
	return err
}

func (b *BreakerRepo) Update(ctx context.Context, s *domain.StoredResume) error {
	_, err := b.execute(func() (interface{}, error) { return nil, b.next.Update(ctx, s) })
	return err
}

// State reports the breaker state for health output.
func (b *BreakerRepo) State() string { return b.cb.State().String() }
