package models

import (
	"time"
)

// Order status constants
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusFailed     = "failed"
	OrderStatusRefunded   = "refunded"
)

type Order struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UserID           uint        `gorm:"index;not null" json:"user_id"`
	SubtotalCents    int64       `gorm:"not null" json:"subtotal_cents"`
	TaxCents         int64       `gorm:"not null" json:"tax_cents"`
	TotalAmountCents int64       `gorm:"not null" json:"total_amount_cents"`
	Currency         string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status           string      `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentMethod    string      `gorm:"type:varchar(30)" json:"payment_method"`
	TransferID       *string     `gorm:"type:varchar(191)" json:"transfer_id,omitempty"`
	ShippingAddress  string      `json:"shipping_address"`
	BillingAddress   string      `json:"billing_address"`
	CustomerName     string      `json:"customer_name,omitempty"`
	CustomerEmail    string      `json:"customer_email,omitempty"`
	WebhookReceived  bool        `gorm:"default:false" json:"webhook_received"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Items            []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

// HasProduct reports whether any line of the order references productID.
func (o Order) HasProduct(productID uint) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderID        uint   `gorm:"index;not null" json:"order_id"`
	ProductID      uint   `gorm:"not null" json:"product_id"`
	ProductName    string `gorm:"not null" json:"product_name"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	UnitPriceCents int64  `gorm:"not null" json:"unit_price_cents"`
}
