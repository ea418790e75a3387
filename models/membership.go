package models

import "time"

// MembershipGrant marks that the membership bought by an order has been
// applied. The unique order index is what keeps redelivered webhooks from
// extending a membership twice.
type MembershipGrant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ExpiresOn time.Time `json:"expires_on"`
	CreatedAt time.Time `json:"created_at"`
}
