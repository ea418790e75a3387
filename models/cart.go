package models

import "github.com/shopspring/decimal"

// CartItem is one line of the pre-checkout cart. Prices stay decimal until
// the order is priced, after which only integer cents are stored.
type CartItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// HasProduct reports whether the cart already holds the given product.
func HasProduct(items []CartItem, productID uint) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
