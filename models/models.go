package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a storefront customer. Only the fields the checkout and
// membership flows read are modelled here.
type User struct {
	gorm.Model
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Phone               string     `json:"phone"`
	IsBlocked           bool       `json:"is_blocked"`
	IsAdmin             bool       `json:"is_admin" gorm:"default:false"`
	IsMember            bool       `json:"is_member" gorm:"default:false"`
	MembershipExpiresOn *time.Time `json:"membership_expires_on,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Product is a catalog entry that can be added to the cart.
type Product struct {
	gorm.Model
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
}
