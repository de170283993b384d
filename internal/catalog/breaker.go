package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Reader is the catalog read checkout depends on.
type Reader interface {
	ProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// BreakerConfig tunes the circuit breaker around catalog reads. Zero values
// fall back to 5 consecutive failures and a 30s open period.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// GuardedReader fails fast while the catalog is unhealthy.
type GuardedReader struct {
	next Reader
	cb   *gobreaker.CircuitBreaker[[]Product]
}

// NewGuardedReader wraps next in a circuit breaker configured by cfg.
func NewGuardedReader(next Reader, log *slog.Logger, cfg BreakerConfig) *GuardedReader {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// the caller giving up says nothing about catalog health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &GuardedReader{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]Product](st),
	}
}

func (g *GuardedReader) ProductsByIDs(ctx context.Context, ids []string) ([]Product, error) {
	return g.cb.Execute(func() ([]Product, error) {
		return g.next.ProductsByIDs(ctx, ids)
	})
}

// State reports the breaker state, for health output.
func (g *GuardedReader) State() string {
	return g.cb.State().String()
}
