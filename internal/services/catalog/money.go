package catalog

import (
	"github.com/shopspring/decimal"

	"boutique-system/internal/stock"
)

func parseMoney(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &stock.InvalidItemError{Reason: field + " must be a decimal amount"}
	}
	if value.IsNegative() {
		return decimal.Zero, &stock.InvalidItemError{Reason: field + " cannot be negative"}
	}
	return value.Round(2), nil
}
