package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"log"

	"github.com/Govind-619/GreenLedger/config"
	"github.com/Govind-619/GreenLedger/controllers"
	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/Govind-619/GreenLedger/pricing"
	"github.com/Govind-619/GreenLedger/reconcile"
	"github.com/Govind-619/GreenLedger/routes"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	adminEmail := flag.String("issue-admin-token", "", "print an admin API token for the admin user with this email and exit")
	flag.Parse()

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	// Initialize logger
	if err := utils.InitLogger(cfg.LogDir); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Register types for session serialization
	gob.Register([]models.CartItem{})

	// Initialize database
	if err := config.InitDB(cfg); err != nil {
		utils.LogError("Failed to initialize database: %v", err)
		log.Fatal("Failed to initialize database:", err)
	}
	db := config.DB

	if *adminEmail != "" {
		var admin models.User
		if err := db.Where("email = ? AND is_admin = ?", *adminEmail, true).First(&admin).Error; err != nil {
			log.Fatalf("No admin user with email %s: %v", *adminEmail, err)
		}
		token, err := utils.GenerateAdminToken(admin.ID, cfg.JWTSecret, utils.AdminTokenTTL)
		if err != nil {
			log.Fatal("Failed to issue admin token:", err)
		}
		fmt.Println(token)
		return
	}

	var processors []payment.Processor
	if cfg.Zenobia.WebhookSecret != "" {
		processors = append(processors, payment.NewZenobiaPay(cfg.Zenobia, cfg.ProcessorTimeout))
	}
	if cfg.Razorpay.WebhookSecret != "" {
		processors = append(processors, payment.NewRazorpay(cfg.Razorpay, cfg.BaseURL))
	}
	registry := payment.NewRegistry(processors...)
	utils.LogInfo("Payment processors enabled: %v", registry.Names())

	orders := ledger.New(db, pricing.NewCalculator(cfg.TaxRate), cfg.Currency)
	grantor := membership.NewGrantor(db)
	ctl := &controllers.Controller{
		DB:        db,
		Ledger:    orders,
		Initiator: payment.NewInitiator(db, orders, registry, cfg.BaseURL, cfg.ProcessorTimeout),
		Engine:    reconcile.NewEngine(db, registry, grantor, cfg.MembershipProductID),
		Grantor:   grantor,
		Offer:     membership.DefaultOffer(cfg.MembershipProductID, cfg.MembershipPrice),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up router
	router := routes.SetupRouter(ctl, routes.Options{
		SessionSecret: cfg.SessionSecret,
		JWTSecret:     cfg.JWTSecret,
		SecureCookies: cfg.Env == "production",
	})

	utils.LogInfo("Server starting on port %s", cfg.Port)
	// Start server
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
