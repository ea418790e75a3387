package controllers

import (
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-gonic/gin"
)

// RefundOrder marks a completed order refunded. Money movement happens at the
// processor; this only records it.
func (ctl *Controller) RefundOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, changed, err := ctl.Ledger.Transition(c.Request.Context(), orderID, models.OrderStatusRefunded)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !changed {
		utils.LogError("Refund rejected for order ID: %d in status %s", order.ID, order.Status)
		utils.Conflict(c, "Only completed orders can be refunded", gin.H{"status": order.Status})
		return
	}

	utils.LogInfo("Order ID: %d refunded", order.ID)
	utils.Success(c, "Order refunded", orderDetails(order))
}
