package routes

import (
	"net/http"

	"github.com/Govind-619/GreenLedger/controllers"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Options configures the router's session store and admin auth.
type Options struct {
	SessionSecret string
	JWTSecret     string
	SecureCookies bool
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(ctl *controllers.Controller, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		MaxAge:   60 * 60 * 24, // 1 day
		Path:     "/",
		Secure:   opts.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("greenledger", store))

	router.GET("/health", ctl.Health)

	// Processor callbacks authenticate by signature, not session.
	initWebhookRoutes(router.Group("/webhooks"), ctl)

	api := router.Group("/v1")
	{
		initUserRoutes(api, ctl)
		initAdminRoutes(api, ctl, opts.JWTSecret)
	}

	return router
}
