package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	ImageURL    string
	Description string
}

// Line builds a cart line for quantity units of p, snapshotting its price and
// display fields.
func (p Product) Line(quantity int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		Quantity:    quantity,
		UnitPrice:   p.Price,
		Name:        p.Name,
		ImageURL:    p.ImageURL,
		Description: p.Description,
	}
}
