package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	AllowedOrigins []string
	Log            *slog.Logger
}

func NewRouter(cfg RouterConfig, carts *CartHandler, checkout *CheckoutHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Post("/adicionarItem", carts.AddItem)
		r.Post("/removerItem", carts.RemoveItem)
		r.Post("/removerunidadeItem", carts.DecrementItem)
		r.Post("/atualizarQuantidade", carts.UpdateQuantity)
		r.Get("/carrinho", carts.GetCart)
		r.Delete("/carrinho", carts.DeleteCart)
		r.Post("/criar-pagamento-cartao", checkout.CreatePaymentIntent)

		r.With(RequireAdmin).Get("/admin/carrinhos", carts.ListCarts)
	})

	return otelhttp.NewHandler(r, "cartd",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
