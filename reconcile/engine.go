// Package reconcile applies authenticated processor webhooks to transactions,
// orders and memberships.
package reconcile

import (
	"context"
	"errors"

	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/Govind-619/GreenLedger/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownTransfer is wrapped by the not-found error returned for webhooks
// whose transfer_id matches no transaction.
var ErrUnknownTransfer = errors.New("unknown transfer")

// Result describes what one webhook delivery did.
type Result struct {
	TransferID        string `json:"transfer_id"`
	OrderID           uint   `json:"order_id"`
	OrderStatus       string `json:"status"`
	TransactionStatus string `json:"transaction_status"`
	StatusChanged     bool   `json:"status_changed"`
	MembershipGranted bool   `json:"membership_granted"`
}

// Engine reconciles webhook deliveries. Deliveries for one transfer are
// serialised in-process and by row locks in the database, and all writes of
// a delivery commit together, so a redelivery after any failure starts from
// a consistent state.
type Engine struct {
	db                  *gorm.DB
	processors          *payment.Registry
	grantor             *membership.Grantor
	membershipProductID uint
	locks               *keyedMutex
}

// NewEngine returns an Engine. Orders containing membershipProductID grant
// a membership when completed.
func NewEngine(db *gorm.DB, processors *payment.Registry, grantor *membership.Grantor, membershipProductID uint) *Engine {
	return &Engine{
		db:                  db,
		processors:          processors,
		grantor:             grantor,
		membershipProductID: membershipProductID,
		locks:               newKeyedMutex(),
	}
}

// HandleWebhook authenticates rawBody against signature, decodes it and
// applies it. Authentication and decoding happen before anything is read
// from or written to the database.
func (e *Engine) HandleWebhook(ctx context.Context, processorName string, rawBody []byte, signature string) (*Result, error) {
	processor, ok := e.processors.Get(processorName)
	if !ok {
		return nil, utils.NotFoundError("Unknown payment processor", nil)
	}

	if !processor.Verifier().Verify(rawBody, signature) {
		utils.LogError("Invalid %s webhook signature (%d byte body)", processorName, len(rawBody))
		return nil, utils.UnauthorizedError("Invalid signature", nil)
	}

	event, err := processor.DecodeWebhook(rawBody)
	if err != nil {
		utils.LogError("Failed to parse %s webhook payload: %v", processorName, err)
		return nil, err
	}
	utils.LogInfo("Received %s webhook: transfer_id=%s, status=%s", processorName, event.TransferID, event.Status)

	unlock := e.locks.Lock(event.TransferID)
	defer unlock()

	result := &Result{TransferID: event.TransferID}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return e.apply(tx, event, rawBody, result)
	})
	if err != nil {
		if errors.Is(err, ErrUnknownTransfer) {
			utils.LogError("Transaction not found for transfer_id: %s", event.TransferID)
			return nil, err
		}
		if !utils.IsAppError(err) {
			err = utils.InternalError("Failed to reconcile webhook", err)
		}
		utils.LogError("Reconciliation of transfer %s failed: %v", event.TransferID, err)
		return nil, err
	}

	utils.LogInfo("Reconciled transfer %s: order ID: %d is %s (changed=%t, membership granted=%t)",
		result.TransferID, result.OrderID, result.OrderStatus, result.StatusChanged, result.MembershipGranted)
	return result, nil
}

func (e *Engine) apply(tx *gorm.DB, event *payment.WebhookEvent, rawBody []byte, result *Result) error {
	var txn models.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transfer_id = ?", event.TransferID).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFoundError("Transaction not found", ErrUnknownTransfer)
	}
	if err != nil {
		return utils.InternalError("Failed to load transaction", err)
	}

	if event.AmountCents != 0 && event.AmountCents != txn.AmountCents {
		utils.LogError("Transfer %s reports %d cents, transaction expects %d", event.TransferID, event.AmountCents, txn.AmountCents)
	}

	// Always store the latest payload, even when nothing else changes.
	txnUpdates := map[string]interface{}{
		"status":      ledger.MapTransactionStatus(event.Status),
		"raw_payload": string(rawBody),
	}
	if event.CustomerName != "" {
		txnUpdates["customer_name"] = event.CustomerName
	}
	if err := tx.Model(&txn).Updates(txnUpdates).Error; err != nil {
		return utils.InternalError("Failed to update transaction", err)
	}
	result.TransactionStatus = txnUpdates["status"].(string)

	order, err := ledger.LockOrder(tx, txn.OrderID)
	if err != nil {
		return err
	}
	result.OrderID = order.ID

	target := ledger.MapProcessorStatus(event.Status)
	if event.Retryable && target == models.OrderStatusCancelled {
		target = models.OrderStatusProcessing
	}
	changed, err := ledger.ApplyTransition(tx, order, target)
	if err != nil {
		return err
	}
	result.StatusChanged = changed
	result.OrderStatus = order.Status

	orderUpdates := map[string]interface{}{}
	if !order.WebhookReceived {
		orderUpdates["webhook_received"] = true
	}
	if event.CustomerName != "" && event.CustomerName != order.CustomerName {
		orderUpdates["customer_name"] = event.CustomerName
	}
	if len(orderUpdates) > 0 {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(orderUpdates).Error; err != nil {
			return utils.InternalError("Failed to update order", err)
		}
	}

	if order.Status != models.OrderStatusCompleted || !order.HasProduct(e.membershipProductID) {
		return nil
	}
	granted, err := membership.HasGrant(tx, order.ID)
	if err != nil || granted {
		return err
	}
	result.MembershipGranted, err = e.grantor.GrantTx(tx, order.UserID, order.ID)
	return err
}
