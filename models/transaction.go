package models

import (
	"time"
)

// Transaction status constants
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusCompleted  = "completed"
	TransactionStatusFailed     = "failed"
	TransactionStatusCancelled  = "cancelled"
)

// Transaction records one transfer attempt at a payment processor. TransferID
// is the correlation key webhooks are matched on.
type Transaction struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OrderID       uint      `json:"order_id" gorm:"index;not null"`
	TransferID    string    `json:"transfer_id" gorm:"type:varchar(191);uniqueIndex;not null"`
	AmountCents   int64     `json:"amount_cents" gorm:"not null"`
	Currency      string    `json:"currency" gorm:"type:varchar(3);not null"`
	Status        string    `json:"status" gorm:"type:varchar(20);not null"`
	PaymentMethod string    `json:"payment_method" gorm:"type:varchar(30)"`
	CustomerName  string    `json:"customer_name,omitempty"`
	RawPayload    string    `json:"-" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the transaction can still receive a payment.
func (t Transaction) IsActive() bool {
	return t.Status == TransactionStatusPending || t.Status == TransactionStatusProcessing
}
