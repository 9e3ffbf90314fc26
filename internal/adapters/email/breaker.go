package email

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSettings tunes the circuit breaker around a Sender.
type BreakerSettings struct {
	FailureThreshold uint32        // consecutive failures before the breaker opens
	OpenTimeout      time.Duration // how long the breaker stays open before probing
}

// BreakerSender stops calling a failing provider until it has had time to recover.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker[SendResult]
}

// NewBreakerSender wraps next in a circuit breaker.
// PRE: next is non-nil
// POST: After FailureThreshold consecutive failures, Send fails fast with gobreaker.ErrOpenState
func NewBreakerSender(next Sender, cfg BreakerSettings, logger *zap.Logger) *BreakerSender {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        "receipts",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit_breaker_state_changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerSender{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[SendResult](settings),
	}
}

// Send delegates to the wrapped sender unless the breaker is open.
func (s *BreakerSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	return s.breaker.Execute(func() (SendResult, error) {
		return s.next.Send(ctx, req)
	})
}

// State reports the breaker state, e.g. "closed" or "open".
func (s *BreakerSender) State() string {
	return s.breaker.State().String()
}
