package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
}

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	CallTimeout      time.Duration
}

var DefaultBreakerSettings = BreakerSettings{
	Name:             "stripe",
	FailureThreshold: 5,
	OpenTimeout:      30 * time.Second,
	HalfOpenRequests: 1,
	CallTimeout:      10 * time.Second,
}

// BreakerGateway guards a Gateway with a circuit breaker and a per-call
// deadline. Customer-facing rejections do not count as failures.
type BreakerGateway struct {
	next    Gateway
	cb      *gobreaker.CircuitBreaker[*domain.PaymentIntent]
	timeout time.Duration
}

func NewBreakerGateway(next Gateway, st BreakerSettings, log *slog.Logger) *BreakerGateway {
	threshold := st.FailureThreshold
	if threshold == 0 {
		threshold = DefaultBreakerSettings.FailureThreshold
	}
	cb := gobreaker.NewCircuitBreaker[*domain.PaymentIntent](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.HalfOpenRequests,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrGateway)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerGateway{next: next, cb: cb, timeout: st.CallTimeout}
}

func (g *BreakerGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	pi, err := g.cb.Execute(func() (*domain.PaymentIntent, error) {
		return g.next.CreatePaymentIntent(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayDown, err)
	}
	return pi, err
}

// State reports the breaker state for health checks.
func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
