package routes

import (
	"github.com/Govind-619/GreenLedger/controllers"
	"github.com/Govind-619/GreenLedger/middleware"
	"github.com/gin-gonic/gin"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(router *gin.RouterGroup, ctl *controllers.Controller, jwtSecret string) {
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(ctl.DB, jwtSecret))
	{
		admin.POST("/orders/:id/refund", ctl.RefundOrder)
	}
}
