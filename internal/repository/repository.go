package repository

import (
	"context"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart persists the full line set and total of cart. New carts are
	// inserted; existing ones are only replaced when the stored version still
	// matches cart.Version, otherwise domain.ErrConflict is returned.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	ListCartsWithOwners(ctx context.Context) ([]domain.OwnedCart, error)
}

type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}
