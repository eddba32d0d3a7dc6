package http

import (
	"context"
	"net/http"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
)

type CartService interface {
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, bool, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	DecrementItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
	ListCarts(ctx context.Context) ([]domain.OwnedCart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

// POST /adicionarItem
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cmd, err := decodeItemCommand(r.Body, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cart, created, err := h.carts.AddItem(ctx, userID, cmd.productID, cmd.quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, toCartResponse(cart))
}

// POST /removerItem
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, false, func(ctx context.Context, userID string, cmd itemCommand) (*domain.Cart, error) {
		return h.carts.RemoveItem(ctx, userID, cmd.productID)
	})
}

// POST /removerunidadeItem
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, false, func(ctx context.Context, userID string, cmd itemCommand) (*domain.Cart, error) {
		return h.carts.DecrementItem(ctx, userID, cmd.productID)
	})
}

// POST /atualizarQuantidade
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, true, func(ctx context.Context, userID string, cmd itemCommand) (*domain.Cart, error) {
		return h.carts.SetQuantity(ctx, userID, cmd.productID, cmd.quantity)
	})
}

func (h *CartHandler) mutateItem(
	w http.ResponseWriter,
	r *http.Request,
	withQuantity bool,
	call func(ctx context.Context, userID string, cmd itemCommand) (*domain.Cart, error),
) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cmd, err := decodeItemCommand(r.Body, withQuantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cart, err := call(ctx, userID, cmd)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// GET /carrinho
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// DELETE /carrinho
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.DeleteCart(ctx, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponseDTO{Message: "Carrinho removido com sucesso"})
}

// GET /admin/carrinhos
func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	carts, err := h.carts.ListCarts(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOwnedCartsResponse(carts))
}
