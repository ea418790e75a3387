package routes

import (
	"github.com/Govind-619/GreenLedger/controllers"
	"github.com/Govind-619/GreenLedger/middleware"
	"github.com/gin-gonic/gin"
)

// initUserRoutes registers the session-authenticated shopper routes
func initUserRoutes(router *gin.RouterGroup, ctl *controllers.Controller) {
	user := router.Group("")
	user.Use(middleware.AuthMiddleware(ctl.DB))
	{
		user.GET("/cart", ctl.GetCart)
		user.POST("/cart/items", ctl.AddToCart)
		user.DELETE("/cart/items/:product_id", ctl.RemoveFromCart)

		user.POST("/checkout", ctl.Checkout)

		user.GET("/orders", ctl.ListOrders)
		user.GET("/orders/:id", ctl.GetOrder)
		user.POST("/orders/:id/pay", ctl.PayOrder)
	}
}
