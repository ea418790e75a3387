package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"gorm.io/gorm"
)

// Initiator starts payment attempts for orders.
type Initiator struct {
	db         *gorm.DB
	ledger     *ledger.Ledger
	processors *Registry
	baseURL    string
	timeout    time.Duration
}

// NewInitiator returns an Initiator. timeout bounds each processor call.
func NewInitiator(db *gorm.DB, l *ledger.Ledger, processors *Registry, baseURL string, timeout time.Duration) *Initiator {
	return &Initiator{
		db:         db,
		ledger:     l,
		processors: processors,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// Processors returns the registry transfers are created with.
func (i *Initiator) Processors() *Registry {
	return i.processors
}

// InitiateTransfer creates a transfer for order at the named processor and
// records it. The Transaction row and the order's transfer_id are written in
// one commit. A processor failure marks the order failed.
func (i *Initiator) InitiateTransfer(ctx context.Context, order *models.Order, processorName string) (*Transfer, error) {
	processor, ok := i.processors.Get(processorName)
	if !ok {
		return nil, utils.UnprocessableError("Unsupported payment processor",
			fmt.Errorf("%q is not one of %v", processorName, i.processors.Names()))
	}
	if !ledger.IsOpen(order.Status) {
		utils.LogError("Refusing transfer for order ID: %d in status %s", order.ID, order.Status)
		return nil, utils.ConflictError("Order can no longer be paid", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	utils.LogInfo("Creating %s transfer for order ID: %d, amount %d cents", processorName, order.ID, order.TotalAmountCents)
	transfer, err := processor.CreateTransfer(callCtx, TransferRequest{
		OrderID:       order.ID,
		AmountCents:   order.TotalAmountCents,
		Currency:      order.Currency,
		Description:   fmt.Sprintf("Order #%d", order.ID),
		CustomerEmail: order.CustomerEmail,
		ReturnURL:     fmt.Sprintf("%s/payment_success?order_id=%d", i.baseURL, order.ID),
		CancelURL:     fmt.Sprintf("%s/payment_cancel?order_id=%d", i.baseURL, order.ID),
		Items:         order.Items,
	})
	if err != nil {
		utils.LogError("%s transfer failed for order ID: %d: %v", processorName, order.ID, err)
		if !utils.IsProcessorError(err) {
			err = utils.BadGatewayError("Payment processing failed", err)
		}
		i.markFailed(ctx, order)
		return nil, err
	}

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := ledger.LockOrder(tx, order.ID)
		if err != nil {
			return err
		}
		if !ledger.IsOpen(locked.Status) {
			return utils.ConflictError("Order can no longer be paid",
				fmt.Errorf("order %d became %s while transfer %s was created", order.ID, locked.Status, transfer.TransferID))
		}

		// One active attempt per order: older ones can no longer complete it.
		res := tx.Model(&models.Transaction{}).
			Where("order_id = ? AND status IN ?", order.ID,
				[]string{models.TransactionStatusPending, models.TransactionStatusProcessing}).
			Update("status", models.TransactionStatusCancelled)
		if res.Error != nil {
			return utils.InternalError("Failed to supersede previous transfers", res.Error)
		}
		if res.RowsAffected > 0 {
			utils.LogInfo("Cancelled %d earlier transfer(s) for order ID: %d", res.RowsAffected, order.ID)
		}

		txn := models.Transaction{
			OrderID:       order.ID,
			TransferID:    transfer.TransferID,
			AmountCents:   locked.TotalAmountCents,
			Currency:      locked.Currency,
			Status:        models.TransactionStatusPending,
			PaymentMethod: processorName,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return utils.InternalError("Failed to record transaction", err)
		}
		if err := ledger.SetTransfer(tx, locked, transfer.TransferID, processorName); err != nil {
			return err
		}
		*order = *locked
		return nil
	})
	if err != nil {
		utils.LogError("Failed to persist transfer %s for order ID: %d: %v", transfer.TransferID, order.ID, err)
		if utils.IsConflictError(err) {
			return nil, err
		}
		i.markFailed(ctx, order)
		if !utils.IsAppError(err) {
			err = utils.InternalError("Failed to record transfer", err)
		}
		return nil, err
	}

	utils.LogInfo("Recorded transfer %s for order ID: %d", transfer.TransferID, order.ID)
	return transfer, nil
}

// markFailed moves the order to failed even if the request was cancelled.
func (i *Initiator) markFailed(ctx context.Context, order *models.Order) {
	updated, changed, err := i.ledger.Transition(context.WithoutCancel(ctx), order.ID, models.OrderStatusFailed)
	if err != nil {
		utils.LogError("%v", utils.WrapError(err, fmt.Sprintf("failed to mark order ID: %d failed", order.ID)))
		return
	}
	if changed {
		order.Status = updated.Status
	}
}
