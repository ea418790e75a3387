package ledger

import "github.com/Govind-619/GreenLedger/models"

// transitions lists the statuses each order status may move to. Statuses
// absent from the map, or mapping to nothing, are terminal.
var transitions = map[string][]string{
	models.OrderStatusPending: {
		models.OrderStatusProcessing,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
		models.OrderStatusFailed,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
		models.OrderStatusFailed,
	},
	models.OrderStatusCompleted: {
		models.OrderStatusRefunded,
	},
}

// CanTransition reports whether an order in status from may move to to.
// Re-asserting the current status is never a transition.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether an order can still be paid.
func IsOpen(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusProcessing
}

// MapProcessorStatus maps a processor-reported payment status to the order
// status it implies.
func MapProcessorStatus(status string) string {
	switch status {
	case "completed":
		return models.OrderStatusCompleted
	case "failed", "cancelled":
		return models.OrderStatusCancelled
	default:
		return models.OrderStatusProcessing
	}
}

// MapTransactionStatus normalises a processor status for the transaction
// row. Unknown values are treated as still in flight.
func MapTransactionStatus(status string) string {
	switch status {
	case models.TransactionStatusPending,
		models.TransactionStatusProcessing,
		models.TransactionStatusCompleted,
		models.TransactionStatusFailed,
		models.TransactionStatusCancelled:
		return status
	default:
		return models.TransactionStatusProcessing
	}
}
