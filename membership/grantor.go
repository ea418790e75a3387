// Package membership grants the annual membership bought through an order.
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserMissing is wrapped when the buyer of a membership order cannot be
// loaded. It is an internal error so the webhook is redelivered once the
// account is restored, rather than acknowledged without the grant.
var ErrUserMissing = errors.New("membership buyer not found")

// Term is the length one purchased membership adds.
const Term = 365 * 24 * time.Hour

// Grantor extends memberships, at most once per order.
type Grantor struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGrantor returns a Grantor using the wall clock.
func NewGrantor(db *gorm.DB) *Grantor {
	return &Grantor{db: db, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (g *Grantor) WithClock(now func() time.Time) *Grantor {
	g.now = now
	return g
}

// Now returns the grantor's current time.
func (g *Grantor) Now() time.Time {
	return g.now()
}

// GrantMembership extends userID's membership for orderID in its own
// database transaction. It reports false when the order was already granted.
func (g *Grantor) GrantMembership(ctx context.Context, userID, orderID uint) (bool, error) {
	var granted bool
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		granted, err = g.GrantTx(tx, userID, orderID)
		return err
	})
	if err != nil {
		if utils.IsAppError(err) {
			return false, err
		}
		return false, utils.InternalError("Failed to grant membership", err)
	}
	return granted, nil
}

// GrantTx does the work of GrantMembership inside an existing transaction.
// The grant row is claimed first; a conflict on its order index means some
// earlier delivery already extended the membership.
func (g *Grantor) GrantTx(tx *gorm.DB, userID, orderID uint) (bool, error) {
	now := g.now().UTC()
	grant := models.MembershipGrant{OrderID: orderID, UserID: userID, ExpiresOn: now}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(&grant)
	if res.Error != nil {
		return false, utils.InternalError("Failed to record membership grant", res.Error)
	}
	if res.RowsAffected == 0 {
		utils.LogInfo("Membership for order ID: %d already granted, skipping", orderID)
		return false, nil
	}

	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogError("User ID: %d for order ID: %d not found, membership not granted", userID, orderID)
		return false, utils.InternalError("Failed to grant membership", ErrUserMissing)
	}
	if err != nil {
		return false, utils.InternalError("Failed to load user", err)
	}

	expires := Extend(user.MembershipExpiresOn, now)
	err = tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"is_member":             true,
		"membership_expires_on": expires,
	}).Error
	if err != nil {
		return false, utils.InternalError("Failed to extend membership", err)
	}
	if err := tx.Model(&grant).Update("expires_on", expires).Error; err != nil {
		return false, utils.InternalError("Failed to record membership expiry", err)
	}

	utils.LogInfo("Extended membership for user ID: %d from order ID: %d until %s",
		userID, orderID, expires.Format(time.RFC3339))
	return true, nil
}

// HasGrant reports whether orderID has already been granted, inside tx.
func HasGrant(tx *gorm.DB, orderID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.MembershipGrant{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, utils.InternalError("Failed to check membership grant", err)
	}
	return count > 0, nil
}

// Extend returns the expiry after adding one Term to whichever is later of
// the current expiry and now.
func Extend(current *time.Time, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.Add(Term).UTC()
}

// IsActive reports whether user holds a membership that has not lapsed.
func IsActive(user models.User, now time.Time) bool {
	if !user.IsMember {
		return false
	}
	return user.MembershipExpiresOn == nil || user.MembershipExpiresOn.After(now)
}
