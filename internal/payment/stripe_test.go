package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGateway("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend}, logger.Discard())
}

func testRequest() domain.PaymentIntentRequest {
	return domain.PaymentIntentRequest{
		AmountMinorUnits: 1150,
		Currency:         domain.PaymentCurrency,
		MethodTypes:      []string{domain.PaymentMethodCard},
		Metadata:         map[string]string{"usuarioId": "u1", "pedido_id": "c1"},
	}
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1150", r.PostForm.Get("amount"))
		assert.Equal(t, "brl", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
		assert.Equal(t, "u1", r.PostForm.Get("metadata[usuarioId]"))
		assert.Equal(t, "c1", r.PostForm.Get("metadata[pedido_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret_x","amount":1150,"currency":"brl"}`))
	})

	pi, err := gw.CreatePaymentIntent(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, "pi_1_secret_x", pi.ClientSecret)
}

func TestStripeGateway_CardError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := gw.CreatePaymentIntent(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.NotErrorIs(t, err, domain.ErrGatewayDown)

	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Your card was declined.", ge.Message)
	assert.Equal(t, "Your card was declined.", err.Error())
}

func TestStripeGateway_ServerError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"internal"}}`))
	})

	_, err := gw.CreatePaymentIntent(context.Background(), testRequest())
	assert.ErrorIs(t, err, domain.ErrGatewayDown)
	assert.NotErrorIs(t, err, domain.ErrGateway)
}

func TestStripeGateway_CancelledContext(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.CreatePaymentIntent(ctx, testRequest())
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
