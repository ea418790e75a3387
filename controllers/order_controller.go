package controllers

import (
	"strconv"

	"github.com/Govind-619/GreenLedger/middleware"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-gonic/gin"
)

// GetOrder returns one of the caller's orders with its items.
func (ctl *Controller) GetOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := ctl.Ledger.GetOrderForUser(c.Request.Context(), orderID, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Order retrieved successfully", orderDetails(order))
}

// ListOrders returns the caller's order history, newest first.
func (ctl *Controller) ListOrders(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}
	pagination := utils.NewPagination(c)

	orders, total, err := ctl.Ledger.ListOrdersForUser(c.Request.Context(), user.ID, pagination.Offset, pagination.Limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pagination.SetTotal(total)

	items := make([]OrderDetailsResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderDetails(&orders[i]))
	}
	utils.SendPaginatedResponse(c, "Orders retrieved successfully", items, pagination)
}

// PayOrder starts a new payment attempt for an order that is still open.
func (ctl *Controller) PayOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Processor string `json:"processor" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. processor is required", err.Error())
		return
	}

	order, err := ctl.Ledger.GetOrderForUser(c.Request.Context(), orderID, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.LogInfo("Payment retry for order ID: %d via %s", order.ID, req.Processor)
	transfer, err := ctl.Initiator.InitiateTransfer(c.Request.Context(), order, req.Processor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Payment initiated", checkoutResponse(order, transfer, req.Processor))
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequest(c, "Invalid order ID", nil)
		return 0, false
	}
	return uint(id), true
}
