package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/repository"
)

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
}

type CheckoutService struct {
	repo    repository.CartRepository
	gateway PaymentGateway
	log     *slog.Logger
}

func NewCheckoutService(repo repository.CartRepository, gateway PaymentGateway, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		repo:    repo,
		gateway: gateway,
		log:     log,
	}
}

// CreatePaymentIntent asks the gateway to collect the current cart total and
// returns the client secret. The cart is read straight from the store and is
// left untouched.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return "", domain.ErrEmptyCart
	}
	if err != nil {
		return "", err
	}
	if cart.IsEmpty() {
		return "", domain.ErrEmptyCart
	}

	amount, err := domain.ToMinorUnits(cart.Total)
	if err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", domain.ErrInvalidAmount
	}

	cartID := cart.ID
	if cartID == "" {
		cartID = "unknown"
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		AmountMinorUnits: amount,
		Currency:         domain.PaymentCurrency,
		MethodTypes:      []string{domain.PaymentMethodCard},
		Metadata: map[string]string{
			"usuarioId": userID,
			"pedido_id": cartID,
		},
	})
	if err != nil {
		s.log.ErrorContext(ctx, "payment intent failed", "user_id", userID, "cart_id", cartID, "amount", amount, "error", err)
		return "", err
	}

	s.log.InfoContext(ctx, "payment intent created", "user_id", userID, "cart_id", cartID, "intent_id", intent.ID, "amount", amount)
	return intent.ClientSecret, nil
}
