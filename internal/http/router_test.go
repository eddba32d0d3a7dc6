package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func newTestRouter(svc *serviceMock) http.Handler {
	return NewRouter(RouterConfig{
		JWTSecret:      testSecret,
		RequestTimeout: 5 * time.Second,
		AllowedOrigins: []string{"*"},
		Log:            logger.Discard(),
	}, NewCartHandler(svc, 5*time.Second), NewCheckoutHandler(svc, 5*time.Second))
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&serviceMock{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	newTestRouter(&serviceMock{}).ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRouter_Authentication(t *testing.T) {
	valid := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"usuarioId": "u1", "tipo": "cliente", "exp": time.Now().Add(time.Hour).Unix(),
	})
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u1", "tipo": "cliente"}), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, jwt.MapClaims{"usuarioId": "u1", "tipo": "cliente"}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u1", "tipo": "cliente", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"missing usuarioId", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"tipo": "cliente"}), http.StatusUnauthorized},
		{"missing tipo", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u1"}), http.StatusUnauthorized},
		{"empty tipo", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u1", "tipo": ""}), http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{cart: sampleCart()}
			req := httptest.NewRequest(http.MethodGet, "/carrinho", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u1", svc.gotUserID)
			} else {
				assert.Empty(t, svc.called)
			}
		})
	}
}

func TestRouter_AdminRoute(t *testing.T) {
	tests := []struct {
		role   string
		status int
	}{
		{"admin", http.StatusOK},
		{"cliente", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			svc := &serviceMock{}
			tok := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u1", "tipo": tt.role})
			req := httptest.NewRequest(http.MethodGet, "/admin/carrinhos", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Empty(t, svc.called)
			}
		})
	}
}

func TestRouter_AddItemEndToEnd(t *testing.T) {
	svc := &serviceMock{cart: sampleCart(), created: true}
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"usuarioId": "u7", "tipo": "cliente"})

	req := httptest.NewRequest(http.MethodPost, "/adicionarItem", strings.NewReader(`{"produtoId":"p1","quantidade":3}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "u7", svc.gotUserID)
	assert.Equal(t, 3, svc.gotQuantity)

	var body CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, json.Number("11.5"), body.Total)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/adicionarItem", nil)
	req.Header.Set("Origin", "https://loja.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestRouter(&serviceMock{}).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
