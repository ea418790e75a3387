package utils

import (
	"fmt"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/gin-contrib/sessions"
)

// Session keys
const (
	SessionUserID = "user_id"
	SessionCart   = "cart"
)

// SessionUser returns the authenticated user id held in the session, if any.
func SessionUser(session sessions.Session) (uint, bool) {
	switch v := session.Get(SessionUserID).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case float64:
		return uint(v), v > 0
	}
	return 0, false
}

// LoadCart returns a copy of the session cart. The session is only read; the
// caller passes the returned slice on explicitly.
func LoadCart(session sessions.Session) []models.CartItem {
	items, ok := session.Get(SessionCart).([]models.CartItem)
	if !ok {
		return nil
	}
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out
}

// SaveCart replaces the session cart and persists the session.
func SaveCart(session sessions.Session, items []models.CartItem) error {
	session.Set(SessionCart, items)
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to save cart: %v", err)
	}
	return nil
}

// ClearCart removes the cart from the session.
func ClearCart(session sessions.Session) error {
	session.Delete(SessionCart)
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to clear cart: %v", err)
	}
	return nil
}
