package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrInvalidAmount   = errors.New("invalid cart amount")
	ErrInvalidState    = errors.New("invalid quantity stored in cart")
	ErrGateway         = errors.New("payment gateway error")
	ErrGatewayDown     = errors.New("payment gateway unavailable")
	ErrConflict        = errors.New("cart was modified concurrently")
	ErrTimeout         = errors.New("operation timed out")
	ErrStore           = errors.New("store error")
)

// GatewayError is a payment provider rejection whose message is safe to show
// to the customer.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() []error {
	return []error{ErrGateway, e.Err}
}
