package membership

import (
	"github.com/Govind-619/GreenLedger/models"
	"github.com/shopspring/decimal"
)

// Offer describes the synthetic membership cart line.
type Offer struct {
	ProductID   uint
	Name        string
	Description string
	Price       decimal.Decimal
}

// DefaultOffer mirrors the storefront's annual membership.
func DefaultOffer(productID uint, price decimal.Decimal) Offer {
	return Offer{
		ProductID:   productID,
		Name:        "Annual Membership",
		Description: "Member pricing and benefits for a full year",
		Price:       price,
	}
}

// Line returns the offer as a cart item.
func (o Offer) Line() models.CartItem {
	return models.CartItem{ProductID: o.ProductID, Name: o.Name, Price: o.Price}
}

// WithMembershipLine returns items with the membership line first, adding it
// only when missing.
func (o Offer) WithMembershipLine(items []models.CartItem) []models.CartItem {
	if models.HasProduct(items, o.ProductID) {
		return items
	}
	return append([]models.CartItem{o.Line()}, items...)
}
