package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Govind-619/GreenLedger/reconcile"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-gonic/gin"
)

// MaxWebhookBody caps how much of an unauthenticated webhook body is read.
const MaxWebhookBody = 1 << 20

// Webhook returns the handler for one processor's payment notifications.
// Unknown transfers are acknowledged so the processor stops redelivering.
func (ctl *Controller) Webhook(processorName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		processor, ok := ctl.Initiator.Processors().Get(processorName)
		if !ok {
			utils.NotFound(c, "Payment processor not configured")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.LogError("Rejected %s webhook body over %d bytes", processorName, tooLarge.Limit)
				utils.Error(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}
			utils.LogError("Failed to read %s webhook body: %v", processorName, err)
			utils.BadRequest(c, "Failed to read request body", nil)
			return
		}

		result, err := ctl.Engine.HandleWebhook(c.Request.Context(), processorName, body, c.GetHeader(processor.SignatureHeader()))
		if errors.Is(err, reconcile.ErrUnknownTransfer) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "processed": false, "message": "Transaction not found"})
			return
		}
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "processed": true, "data": result})
	}
}
