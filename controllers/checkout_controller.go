package controllers

import (
	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/middleware"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Checkout turns the session cart into a pending order and starts the first
// payment attempt. The cart is cleared only once the transfer is recorded.
func (ctl *Controller) Checkout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	var req struct {
		ShippingAddress string `json:"shipping_address" binding:"required"`
		BillingAddress  string `json:"billing_address"`
		Processor       string `json:"processor" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid checkout request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. shipping_address and processor are required", err.Error())
		return
	}
	if errs := utils.ValidateOrderAddresses(req.ShippingAddress, req.BillingAddress); len(errs) > 0 {
		utils.ValidationError(c, "Invalid address", errs)
		return
	}
	req.ShippingAddress = utils.SanitizeString(req.ShippingAddress)
	req.BillingAddress = utils.SanitizeString(req.BillingAddress)
	if req.BillingAddress == "" {
		req.BillingAddress = req.ShippingAddress
	}
	if _, ok := ctl.Initiator.Processors().Get(req.Processor); !ok {
		utils.ValidationError(c, "Unsupported payment processor", ctl.Initiator.Processors().Names())
		return
	}

	session := sessions.Default(c)
	items := utils.LoadCart(session)
	if len(items) == 0 {
		utils.ValidationError(c, "Cart is empty", nil)
		return
	}
	if !membership.IsActive(user, ctl.Grantor.Now()) {
		items = ctl.Offer.WithMembershipLine(items)
	}

	utils.LogInfo("Checkout for user ID: %d with %d cart lines via %s", user.ID, len(items), req.Processor)
	order, err := ctl.Ledger.CreateOrder(c.Request.Context(), user.ID, items, ledger.Contact{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Email:           user.Email,
		Name:            user.FullName(),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	transfer, err := ctl.Initiator.InitiateTransfer(c.Request.Context(), order, req.Processor)
	if err != nil {
		utils.LogError("Checkout payment failed for order ID: %d: %v", order.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := utils.ClearCart(session); err != nil {
		utils.LogError("Failed to clear cart for user ID: %d: %v", user.ID, err)
	}
	utils.Created(c, "Order created, complete payment at payment_url", checkoutResponse(order, transfer, req.Processor))
}
