// Package pricing turns cart lines into integer-cent order totals.
package pricing

import (
	"fmt"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the sales tax applied when none is configured (8.25%).
var DefaultTaxRate = decimal.RequireFromString("0.0825")

var hundred = decimal.NewFromInt(100)

// Quote is the priced form of a cart. TotalCents is always SubtotalCents +
// TaxCents.
type Quote struct {
	Lines         []Line `json:"lines"`
	SubtotalCents int64  `json:"subtotal_cents"`
	TaxCents      int64  `json:"tax_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// Line is one cart item converted to cents.
type Line struct {
	ProductID      uint   `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Calculator prices carts at a fixed tax rate.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator returns a Calculator for the given rate, e.g. 0.0825.
func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// TaxRate returns the configured rate.
func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Quote prices items. Every conversion truncates toward zero; nothing is
// rounded.
func (c *Calculator) Quote(items []models.CartItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, utils.UnprocessableError("Cart is empty", nil)
	}

	q := Quote{Lines: make([]Line, 0, len(items))}
	for i, item := range items {
		if !item.Price.IsPositive() {
			return Quote{}, utils.UnprocessableError("Invalid item price",
				fmt.Errorf("item %d (%s): price must be positive, got %s", i, item.Name, item.Price))
		}
		cents := ToCents(item.Price)
		if cents <= 0 {
			return Quote{}, utils.UnprocessableError("Invalid item price",
				fmt.Errorf("item %d (%s): price %s is below one cent", i, item.Name, item.Price))
		}
		q.Lines = append(q.Lines, Line{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       1,
			UnitPriceCents: cents,
		})
		q.SubtotalCents += cents
	}

	q.TaxCents = Tax(q.SubtotalCents, c.taxRate)
	q.TotalCents = q.SubtotalCents + q.TaxCents
	return q, nil
}

// ToCents converts a decimal amount to cents, truncating toward zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).IntPart()
}

// FromCents converts cents back to a decimal amount for display.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Tax returns truncate(subtotalCents * rate).
func Tax(subtotalCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(rate).IntPart()
}
