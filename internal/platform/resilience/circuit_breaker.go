package resilience

import (
	"context"
	"errors"
	"time"

	"order-board-service/internal/platform/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker open")

type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	// IsFailure decides whether an error counts towards tripping the
	// breaker. nil counts every error.
	IsFailure func(err error) bool
}

// CircuitBreaker wraps gobreaker with logging on state changes.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(s Settings) *CircuitBreaker {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	st := gobreaker.Settings{
		Name:     s.Name,
		Interval: s.Interval,
		Timeout:  s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	if s.IsFailure != nil {
		isFailure := s.IsFailure
		st.IsSuccessful = func(err error) bool { return err == nil || !isFailure(err) }
	}

	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs op through the breaker. A nil breaker runs op directly.
func Execute[T any](ctx context.Context, c *CircuitBreaker, op func(ctx context.Context) (T, error)) (T, error) {
	if c == nil || c.breaker == nil {
		return op(ctx)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrCircuitOpen
	}

	v, _ := res.(T)
	return v, err
}

// Allow reports whether the breaker would currently let a call through.
func (c *CircuitBreaker) Allow() bool {
	if c == nil || c.breaker == nil {
		return true
	}
	return c.breaker.State() != gobreaker.StateOpen
}
