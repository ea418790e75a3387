package routes

import (
	"github.com/Govind-619/GreenLedger/controllers"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/gin-gonic/gin"
)

func initWebhookRoutes(router *gin.RouterGroup, ctl *controllers.Controller) {
	router.POST("/zenobiapay", ctl.Webhook(payment.ZenobiaPayName))
	router.POST("/razorpay", ctl.Webhook(payment.RazorpayName))
}
