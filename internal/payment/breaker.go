package payment

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/logging"
	"github.com/MikeMC777/food-ordering/internal/metrics"
)

const (
	breakerName     = "payment-gateway"
	tripAfter       = 5
	callTimeout     = 10 * time.Second
	openStateWindow = 30 * time.Second
)

// Breaker wraps a Gateway with a per-call timeout and a circuit breaker.
// Every error it returns is an apperr.UpstreamFailure.
type Breaker struct {
	next    Gateway
	cb      *gobreaker.CircuitBreaker[*Session]
	timeout time.Duration
}

func NewBreaker(next Gateway) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     openStateWindow,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &Breaker{next: next, cb: cb, timeout: callTimeout}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *Breaker) CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	s, err := b.cb.Execute(func() (*Session, error) {
		cctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return b.next.CreateSession(cctx, req)
	})
	if err == nil {
		return s, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.PaymentGatewayErrorsTotal.WithLabelValues("open_circuit").Inc()
		return nil, apperr.Wrap(apperr.UpstreamFailure, "payment gateway unavailable", err)
	}
	metrics.PaymentGatewayErrorsTotal.WithLabelValues("error").Inc()
	return nil, apperr.Wrap(apperr.UpstreamFailure, "payment gateway error", err)
}
