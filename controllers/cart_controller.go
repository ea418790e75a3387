package controllers

import (
	"errors"
	"strconv"

	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/middleware"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type cartResponse struct {
	Items         []models.CartItem `json:"items"`
	IsMember      bool              `json:"is_member"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	TotalCents    int64             `json:"total_cents"`
}

// GetCart returns the session cart. Non-members always see the membership
// line once the cart holds anything.
func (ctl *Controller) GetCart(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}
	session := sessions.Default(c)
	items := utils.LoadCart(session)

	isMember := membership.IsActive(user, ctl.Grantor.Now())
	if len(items) > 0 && !isMember && !models.HasProduct(items, ctl.Offer.ProductID) {
		items = ctl.Offer.WithMembershipLine(items)
		if err := utils.SaveCart(session, items); err != nil {
			utils.LogError("Failed to update cart for user ID: %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to update cart", nil)
			return
		}
	}

	resp, err := ctl.cartResponse(items, isMember)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Cart retrieved successfully", resp)
}

// AddToCart appends one product line to the session cart.
func (ctl *Controller) AddToCart(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid add-to-cart request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. product_id is required", err.Error())
		return
	}

	session := sessions.Default(c)
	items := utils.LoadCart(session)
	isMember := membership.IsActive(user, ctl.Grantor.Now())

	if req.ProductID == ctl.Offer.ProductID {
		items = ctl.Offer.WithMembershipLine(items)
	} else {
		var product models.Product
		err := ctl.DB.WithContext(c.Request.Context()).
			Where("id = ? AND is_active = ?", req.ProductID, true).
			First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Product not found")
			return
		}
		if err != nil {
			utils.LogError("Failed to load product %d: %v", req.ProductID, err)
			utils.InternalServerError(c, "Failed to load product", nil)
			return
		}
		if !isMember {
			items = ctl.Offer.WithMembershipLine(items)
		}
		items = append(items, models.CartItem{ProductID: product.ID, Name: product.Name, Price: product.Price})
	}

	if err := utils.SaveCart(session, items); err != nil {
		utils.LogError("Failed to save cart for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to update cart", nil)
		return
	}
	utils.LogInfo("User ID: %d added product %d to cart (%d lines)", user.ID, req.ProductID, len(items))

	resp, err := ctl.cartResponse(items, isMember)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Product added to cart", resp)
}

// RemoveFromCart drops the first line for the product.
func (ctl *Controller) RemoveFromCart(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid product ID", nil)
		return
	}

	session := sessions.Default(c)
	items := utils.LoadCart(session)
	pos := -1
	for i, item := range items {
		if item.ProductID == uint(productID) {
			pos = i
			break
		}
	}
	if pos < 0 {
		utils.NotFound(c, "Product not in cart")
		return
	}
	items = append(items[:pos], items[pos+1:]...)

	if err := utils.SaveCart(session, items); err != nil {
		utils.LogError("Failed to save cart for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to update cart", nil)
		return
	}
	utils.LogInfo("User ID: %d removed product %d from cart", user.ID, productID)

	resp, err := ctl.cartResponse(items, membership.IsActive(user, ctl.Grantor.Now()))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Product removed from cart", resp)
}

func (ctl *Controller) cartResponse(items []models.CartItem, isMember bool) (cartResponse, error) {
	resp := cartResponse{Items: items, IsMember: isMember, TaxRate: ctl.Ledger.Calculator().TaxRate()}
	if resp.Items == nil {
		resp.Items = []models.CartItem{}
	}
	if len(items) == 0 {
		return resp, nil
	}
	quote, err := ctl.Ledger.Calculator().Quote(items)
	if err != nil {
		return resp, err
	}
	resp.SubtotalCents = quote.SubtotalCents
	resp.TaxCents = quote.TaxCents
	resp.TotalCents = quote.TotalCents
	return resp, nil
}
