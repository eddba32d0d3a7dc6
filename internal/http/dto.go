package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB
	maxLineQuantity    = 9999
)

type ItemRequestDTO struct {
	ProductID string          `json:"produtoId"`
	Quantity  json.RawMessage `json:"quantidade"`
}

// itemCommand is a validated item request.
type itemCommand struct {
	productID string
	quantity  int
}

// decodeItemCommand reads exactly one {produtoId, quantidade} object. Unknown
// fields and trailing data are rejected. When withQuantity is set quantidade
// must be an integral JSON number between 1 and maxLineQuantity.
func decodeItemCommand(body io.Reader, withQuantity bool) (itemCommand, error) {
	var req ItemRequestDTO
	dec := json.NewDecoder(io.LimitReader(body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return itemCommand{}, errors.New("invalid JSON body")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return itemCommand{}, errors.New("invalid JSON body")
	}
	if req.ProductID == "" {
		return itemCommand{}, errors.New("produtoId is required")
	}
	cmd := itemCommand{productID: req.ProductID}
	if !withQuantity {
		return cmd, nil
	}

	q, err := parseQuantity(req.Quantity)
	if err != nil {
		return itemCommand{}, err
	}
	cmd.quantity = q
	return cmd, nil
}

var errQuantityTooLarge = errors.New("quantidade must be at most " + strconv.Itoa(maxLineQuantity))

func parseQuantity(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("quantidade is required")
	}
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return 0, errors.New("quantidade must be a number")
	}
	q, err := strconv.Atoi(string(raw))
	if errors.Is(err, strconv.ErrRange) {
		return 0, errQuantityTooLarge
	}
	if err != nil {
		return 0, errors.New("quantidade must be an integer")
	}
	if q <= 0 {
		return 0, errors.New("quantidade must be positive")
	}
	if q > maxLineQuantity {
		return 0, errQuantityTooLarge
	}
	return q, nil
}

type CartItemResponseDTO struct {
	ProductID   string      `json:"produtoId"`
	Quantity    int         `json:"quantidade"`
	UnitPrice   json.Number `json:"precoUnitario"`
	Name        string      `json:"nome"`
	ImageURL    string      `json:"urlfoto"`
	Description string      `json:"descricao"`
}

type CartResponseDTO struct {
	ID        string                `json:"_id,omitempty"`
	UserID    string                `json:"usuarioId"`
	Items     []CartItemResponseDTO `json:"itens"`
	UpdatedAt time.Time             `json:"dataAtualizacao"`
	Total     json.Number           `json:"total"`
}

type OwnedCartResponseDTO struct {
	CartResponseDTO
	OwnerName  string `json:"usuarioNome"`
	OwnerEmail string `json:"usuarioEmail"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

type PaymentIntentResponseDTO struct {
	ClientSecret string `json:"clientSecret"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toCartResponse(c *domain.Cart) CartResponseDTO {
	items := make([]CartItemResponseDTO, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = CartItemResponseDTO{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			Name:        l.Name,
			ImageURL:    l.ImageURL,
			Description: l.Description,
		}
	}
	return CartResponseDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		UpdatedAt: c.UpdatedAt,
		Total:     money(c.Total),
	}
}

func toOwnedCartsResponse(carts []domain.OwnedCart) []OwnedCartResponseDTO {
	out := make([]OwnedCartResponseDTO, len(carts))
	for i := range carts {
		out[i] = OwnedCartResponseDTO{
			CartResponseDTO: toCartResponse(&carts[i].Cart),
			OwnerName:       carts[i].OwnerName,
			OwnerEmail:      carts[i].OwnerEmail,
		}
	}
	return out
}
