package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	PaymentCurrency   = "brl"
	PaymentMethodCard = "card"
)

type PaymentIntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	MethodTypes      []string
	Metadata         map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

var (
	hundred       = decimal.NewFromInt(100)
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits converts an amount in reais to centavos, rounding half away
// from zero. Amounts that do not fit in an int64 fail with ErrInvalidAmount.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, amount.String())
	}
	return minor.IntPart(), nil
}
