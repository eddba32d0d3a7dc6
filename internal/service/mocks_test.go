package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/cache"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// mockRepository is an in-memory store with the same version semantics as
// the MongoDB repository.
type mockRepository struct {
	m         sync.Mutex
	carts     map[string]*domain.Cart
	nextID    int
	err       error
	conflicts int // SaveCart calls to fail with ErrConflict before succeeding
	saves     int
	gets      int
	owners    []domain.OwnedCart
	block     chan struct{} // when set, GetCart waits on it or on ctx
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockRepository) put(c *domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	if c.ID == "" {
		m.nextID++
		c.ID = fmt.Sprintf("cart-%d", m.nextID)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	c.Recalculate()
	m.carts[c.UserID] = c.Clone()
}

func (m *mockRepository) stored(userID string) *domain.Cart {
	m.m.Lock()
	defer m.m.Unlock()
	if c, ok := m.carts[userID]; ok {
		return c.Clone()
	}
	return nil
}

func (m *mockRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}

	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (m *mockRepository) SaveCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	if m.conflicts > 0 {
		m.conflicts--
		return domain.ErrConflict
	}

	current, exists := m.carts[c.UserID]
	if c.IsNew() {
		if exists {
			return domain.ErrConflict
		}
		m.nextID++
		c.ID = fmt.Sprintf("cart-%d", m.nextID)
		c.Version = 1
		m.carts[c.UserID] = c.Clone()
		return nil
	}
	if !exists || current.Version != c.Version {
		return domain.ErrConflict
	}
	c.Version++
	m.carts[c.UserID] = c.Clone()
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockRepository) ListCartsWithOwners(context.Context) ([]domain.OwnedCart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.owners, m.err
}

type mockCatalog struct {
	m        sync.Mutex
	products map[string]domain.Product
	err      error
	calls    int
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	c := &mockCatalog{products: map[string]domain.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (c *mockCatalog) setPrice(id, price string) {
	c.m.Lock()
	defer c.m.Unlock()
	p := c.products[id]
	p.Price = decimal.RequireFromString(price)
	c.products[id] = p
}

func (c *mockCatalog) callCount() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.calls
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
	dels int
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart.Clone(), nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart.Clone()
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	m.dels++
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockGateway struct {
	m     sync.Mutex
	calls []domain.PaymentIntentRequest
	err   error
}

func (g *mockGateway) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &domain.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
}
