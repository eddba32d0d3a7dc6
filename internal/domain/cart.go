package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product inside a cart. Price, name and display fields are a
// copy of the catalog entry taken when the product was first added.
type CartLine struct {
	ProductID   string
	Quantity    int
	UnitPrice   decimal.Decimal
	Name        string
	ImageURL    string
	Description string
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NeedsMetadata reports whether display fields are missing and should be
// refreshed from the catalog before the line is shown.
func (l CartLine) NeedsMetadata() bool {
	return l.ImageURL == "" || l.Description == ""
}

type Cart struct {
	ID        string
	UserID    string
	Lines     []CartLine
	UpdatedAt time.Time
	Total     decimal.Decimal
	// Version is the optimistic concurrency token matched on every write.
	Version int64
}

// NewEmptyCart returns an unsaved cart with no lines.
func NewEmptyCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Lines:     []CartLine{},
		UpdatedAt: now,
		Total:     decimal.Zero,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// IsNew reports whether the cart has never been persisted.
func (c *Cart) IsNew() bool {
	return c.ID == ""
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID string) (CartLine, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.Lines[i], true
}

// AddLine merges line into the cart. An existing line for the same product
// only grows in quantity; its unit price and display fields are kept. A merge
// that would overflow the quantity is rejected and leaves the cart unchanged.
func (c *Cart) AddLine(line CartLine) error {
	if line.Quantity <= 0 {
		return ErrInvalidInput
	}
	if i := c.indexOf(line.ProductID); i >= 0 {
		if line.Quantity > math.MaxInt-c.Lines[i].Quantity {
			return ErrInvalidInput
		}
		c.Lines[i].Quantity += line.Quantity
	} else {
		c.Lines = append(c.Lines, line)
	}
	c.Recalculate()
	return nil
}

// RemoveLine drops the line for productID regardless of its quantity.
func (c *Cart) RemoveLine(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.Recalculate()
	return nil
}

// DecrementLine takes one unit off the line for productID, removing the line
// once it reaches zero.
func (c *Cart) DecrementLine(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	switch q := c.Lines[i].Quantity; {
	case q > 1:
		c.Lines[i].Quantity--
	case q == 1:
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	default:
		return ErrInvalidState
	}
	c.Recalculate()
	return nil
}

// SetLineQuantity overwrites the quantity of an existing line. Zero is not
// accepted; callers remove the line instead.
func (c *Cart) SetLineQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidInput
	}
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Lines[i].Quantity = quantity
	c.Recalculate()
	return nil
}

// Recalculate derives Total from the lines.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	c.Total = total
}

// Clone returns a deep copy so callers can modify lines without touching a
// shared value.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	return &cp
}

// OwnedCart is a cart together with its owner's display data, used by the
// admin listing.
type OwnedCart struct {
	Cart       Cart
	OwnerName  string
	OwnerEmail string
}
