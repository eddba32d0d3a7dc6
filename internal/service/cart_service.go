package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/cache"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

// RetryPolicy bounds how often a conflicting read-modify-write is replayed.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 5, BaseDelay: 10 * time.Millisecond}

// DefaultLoadTimeout bounds a shared cart load, which runs detached from the
// cancellation of whichever caller started it.
const DefaultLoadTimeout = 10 * time.Second

type CartService struct {
	repo    repository.CartRepository
	catalog repository.ProductCatalog
	cache   cache.CartCache
	log     *slog.Logger
	retry   RetryPolicy
	now     func() time.Time
	sfg     singleflight.Group // Prevents cache stampede

	loadTimeout time.Duration
}

func NewCartService(
	repo repository.CartRepository,
	catalog repository.ProductCatalog,
	cartCache cache.CartCache,
	log *slog.Logger,
) *CartService {
	if cartCache == nil {
		cartCache = cache.Noop{}
	}
	return &CartService{
		repo:    repo,
		catalog: catalog,
		cache:   cartCache,
		log:     log,
		retry:   DefaultRetryPolicy,
		now:     time.Now,

		loadTimeout: DefaultLoadTimeout,
	}
}

// WithRetryPolicy overrides the conflict retry policy.
func (s *CartService) WithRetryPolicy(p RetryPolicy) *CartService {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	s.retry = p
	return s
}

// AddItem puts quantity units of productID into the user's cart, creating the
// cart on first use. The bool result is true when a new cart was created.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, bool, error) {
	if userID == "" {
		return nil, false, domain.ErrUnauthenticated
	}
	if productID == "" || quantity <= 0 {
		return nil, false, domain.ErrInvalidInput
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	created := false
	cart, err := s.mutate(ctx, userID, true, func(c *domain.Cart) error {
		created = c.IsNew()
		return c.AddLine(product.Line(quantity))
	})
	if err != nil {
		return nil, false, err
	}
	return cart, created, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		return c.RemoveLine(productID)
	})
}

// DecrementItem removes a single unit of productID.
func (s *CartService) DecrementItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		return c.DecrementLine(productID)
	})
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		return c.SetLineQuantity(productID, quantity)
	})
}

// mutate runs a read-modify-write cycle on the user's cart. The write is
// conditional on the version that was read; on conflict the whole cycle is
// replayed against fresh state.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, apply func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 1; ; attempt++ {
		cart, err := s.repo.GetCart(ctx, userID)
		if errors.Is(err, domain.ErrCartNotFound) && create {
			cart, err = domain.NewEmptyCart(userID, s.now()), nil
		}
		if err != nil {
			return nil, err
		}

		if err := apply(cart); err != nil {
			return nil, err
		}
		cart.UpdatedAt = s.now()

		err = s.repo.SaveCart(ctx, cart)
		if err == nil {
			s.invalidateCache(ctx, userID)
			return cart, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= s.retry.Attempts {
			s.log.WarnContext(ctx, "cart save failed", "user_id", userID, "attempt", attempt, "error", err)
			return nil, err
		}

		s.log.DebugContext(ctx, "cart write conflict, retrying", "user_id", userID, "attempt", attempt)
		if err := s.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (s *CartService) backoff(ctx context.Context, attempt int) error {
	if s.retry.BaseDelay <= 0 {
		return nil
	}
	delay := s.retry.BaseDelay<<(attempt-1) + rand.N(s.retry.BaseDelay)

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting to retry cart write: %w: %w", domain.ErrTimeout, ctx.Err())
	case <-t.C:
		return nil
	}
}

// GetCart returns the user's persisted cart, or an unsaved empty cart when
// none exists. Lines missing display metadata are filled from the catalog on
// the returned copy only.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key.
	// The load is detached from caller cancellation and bounded by loadTimeout.
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "user_id", userID, "error", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, domain.ErrCartNotFound) { // not found cart return empty cart
			return domain.NewEmptyCart(userID, s.now()), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			s.log.WarnContext(ctx, "cache set error", "user_id", userID, "error", errSet)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing the singleflight result must not see each other's edits
	cart := v.(*domain.Cart).Clone()
	s.fillMetadata(ctx, cart)
	return cart, nil
}

func (s *CartService) fillMetadata(ctx context.Context, cart *domain.Cart) {
	for i := range cart.Lines {
		line := &cart.Lines[i]
		if !line.NeedsMetadata() {
			continue
		}
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if !errors.Is(err, domain.ErrProductNotFound) {
				s.log.WarnContext(ctx, "metadata refresh failed", "product_id", line.ProductID, "error", err)
			}
			continue
		}
		line.ImageURL = product.ImageURL
		line.Description = product.Description
	}
}

func (s *CartService) DeleteCart(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// ClearCart deletes the cart if present. It is used after a successful
// payment, where a missing cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.DeleteCart(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		s.invalidateCache(ctx, userID)
		return nil
	}
	return err
}

func (s *CartService) ListCarts(ctx context.Context) ([]domain.OwnedCart, error) {
	return s.repo.ListCartsWithOwners(ctx)
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "cache invalidate error", "user_id", userID, "error", err)
	}
}
