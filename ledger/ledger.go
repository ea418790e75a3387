// Package ledger owns orders, their items and the order status machine.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/pricing"
	"github.com/Govind-619/GreenLedger/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Contact carries the customer fields snapshotted onto an order.
type Contact struct {
	ShippingAddress string
	BillingAddress  string
	Email           string
	Name            string
}

// Ledger creates orders and moves them through their statuses.
type Ledger struct {
	db       *gorm.DB
	calc     *pricing.Calculator
	currency string
}

// New returns a Ledger writing to db.
func New(db *gorm.DB, calc *pricing.Calculator, currency string) *Ledger {
	return &Ledger{db: db, calc: calc, currency: currency}
}

// Calculator returns the pricing calculator orders are quoted with.
func (l *Ledger) Calculator() *pricing.Calculator {
	return l.calc
}

// CreateOrder prices items and stores a pending order with one item per cart
// line. Order and items are committed together or not at all.
func (l *Ledger) CreateOrder(ctx context.Context, userID uint, items []models.CartItem, contact Contact) (*models.Order, error) {
	quote, err := l.calc.Quote(items)
	if err != nil {
		utils.LogError("Pricing failed for user ID: %d: %v", userID, err)
		return nil, err
	}

	order := &models.Order{
		UserID:           userID,
		SubtotalCents:    quote.SubtotalCents,
		TaxCents:         quote.TaxCents,
		TotalAmountCents: quote.TotalCents,
		Currency:         l.currency,
		Status:           models.OrderStatusPending,
		ShippingAddress:  contact.ShippingAddress,
		BillingAddress:   contact.BillingAddress,
		CustomerEmail:    contact.Email,
		CustomerName:     contact.Name,
		Items:            make([]models.OrderItem, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		utils.LogError("Failed to create order for user ID: %d: %v", userID, err)
		return nil, utils.InternalError("Failed to create order", err)
	}

	utils.LogInfo("Created order ID: %d for user ID: %d, total %d cents (%d items)",
		order.ID, userID, order.TotalAmountCents, len(order.Items))
	return order, nil
}

// GetOrder loads an order with its items.
func (l *Ledger) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := l.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFoundError("Order not found", nil)
	}
	if err != nil {
		return nil, utils.InternalError("Failed to load order", err)
	}
	return &order, nil
}

// GetOrderForUser loads an order only if it belongs to userID.
func (l *Ledger) GetOrderForUser(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := l.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		utils.LogError("User ID: %d requested order ID: %d owned by user ID: %d", userID, orderID, order.UserID)
		return nil, utils.NotFoundError("Order not found", nil)
	}
	return order, nil
}

// ListOrdersForUser returns one page of userID's orders, newest first, and
// the total number of orders the user has.
func (l *Ledger) ListOrdersForUser(ctx context.Context, userID uint, offset, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := l.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, utils.InternalError("Failed to count orders", err)
	}

	orders := []models.Order{}
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, utils.InternalError("Failed to list orders", err)
	}
	return orders, total, nil
}

// LockOrder reads an order and its items inside tx, holding a row lock on
// the order until tx ends.
func LockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFoundError("Order not found", nil)
	}
	if err != nil {
		return nil, utils.InternalError("Failed to lock order", err)
	}
	if err := tx.Where("order_id = ?", orderID).Order("id").Find(&order.Items).Error; err != nil {
		return nil, utils.InternalError("Failed to load order items", err)
	}
	return &order, nil
}

// ApplyTransition moves a locked order to status to inside tx. It reports
// false without error when the move is not allowed, which covers terminal
// orders and repeats of the current status.
func ApplyTransition(tx *gorm.DB, order *models.Order, to string) (bool, error) {
	if !CanTransition(order.Status, to) {
		utils.LogDebug("Order ID: %d stays %s, ignoring transition to %s", order.ID, order.Status, to)
		return false, nil
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", to)
	if res.Error != nil {
		return false, utils.InternalError("Failed to update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		utils.LogError("Order ID: %d changed status concurrently, transition to %s skipped", order.ID, to)
		return false, nil
	}

	utils.LogInfo("Order ID: %d status %s -> %s", order.ID, order.Status, to)
	order.Status = to
	return true, nil
}

// Transition locks the order and applies the status change in its own
// database transaction.
func (l *Ledger) Transition(ctx context.Context, orderID uint, to string) (*models.Order, bool, error) {
	var (
		order   *models.Order
		changed bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = LockOrder(tx, orderID); err != nil {
			return err
		}
		changed, err = ApplyTransition(tx, order, to)
		return err
	})
	if err != nil {
		if utils.IsAppError(err) {
			return nil, false, err
		}
		return nil, false, utils.InternalError("Failed to update order", err)
	}
	return order, changed, nil
}

// SetTransfer records the processor transfer on a locked order. The status is
// left as it is.
func SetTransfer(tx *gorm.DB, order *models.Order, transferID, paymentMethod string) error {
	err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"transfer_id":    transferID,
		"payment_method": paymentMethod,
	}).Error
	if err != nil {
		return utils.InternalError("Failed to record transfer", utils.WrapError(err, fmt.Sprintf("order %d", order.ID)))
	}
	order.TransferID = &transferID
	order.PaymentMethod = paymentMethod
	return nil
}
