package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates payment intents through the Stripe API.
type StripeGateway struct {
	sc  *client.API
	log *slog.Logger
}

// NewStripeGateway builds a gateway for the given secret key. A nil backends
// value uses the default Stripe endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends, log *slog.Logger) *StripeGateway {
	return &StripeGateway{
		sc:  client.New(secretKey, backends),
		log: log,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinorUnits),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice(req.MethodTypes),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, g.translate(ctx, err)
	}
	return &domain.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// translate keeps only the provider's user-facing message. Anything without
// one is reported as an outage so the breaker can count it.
func (g *StripeGateway) translate(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("payment provider: %w: %w", domain.ErrTimeout, ctx.Err())
	}

	var se *stripe.Error
	if errors.As(err, &se) {
		g.log.WarnContext(ctx, "stripe request failed",
			"type", se.Type, "code", se.Code, "status", se.HTTPStatusCode, "request_id", se.RequestID)
		if se.HTTPStatusCode >= 500 || se.Type == stripe.ErrorTypeAPI {
			return fmt.Errorf("%w: %w", domain.ErrGatewayDown, err)
		}
		msg := se.Msg
		if msg == "" {
			msg = "payment request rejected"
		}
		return &domain.GatewayError{Message: msg, Err: err}
	}

	g.log.ErrorContext(ctx, "stripe transport error", "error", err)
	return fmt.Errorf("%w: %w", domain.ErrGatewayDown, err)
}
