package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	Port          string
	Env           string
	BaseURL       string
	LogDir        string
	SessionSecret string
	JWTSecret     string

	Currency            string
	TaxRate             decimal.Decimal
	MembershipProductID uint
	MembershipPrice     decimal.Decimal
	ProcessorTimeout    time.Duration

	Zenobia  ZenobiaConfig
	Razorpay RazorpayConfig
}

// ZenobiaConfig holds the ZenobiaPay transfer API settings.
type ZenobiaConfig struct {
	APIURL        string
	APIKey        string
	MerchantID    string
	WebhookSecret string
}

// RazorpayConfig holds the Razorpay order API settings.
type RazorpayConfig struct {
	Key           string
	Secret        string
	WebhookSecret string
}

// LoadConfig loads configuration from a .env file, when present, and the
// environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %v", err)
	}

	config := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: getEnv("SQLITE_PATH", "greenledger.db"),

		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		LogDir:        getEnv("LOG_DIR", "logs"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		Currency: getEnv("CURRENCY", "USD"),

		Zenobia: ZenobiaConfig{
			APIURL:        getEnv("ZENOBIA_API_URL", "https://dashboard.zenobiapay.com/api"),
			APIKey:        os.Getenv("ZENOBIA_API_KEY"),
			MerchantID:    os.Getenv("ZENOBIA_MERCHANT_ID"),
			WebhookSecret: os.Getenv("ZENOBIA_WEBHOOK_SECRET"),
		},
		Razorpay: RazorpayConfig{
			Key:           os.Getenv("RAZORPAY_KEY"),
			Secret:        os.Getenv("RAZORPAY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		},
	}

	var err error
	if config.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.0825")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %v", err)
	}
	if config.TaxRate.IsNegative() {
		return nil, fmt.Errorf("invalid TAX_RATE: must not be negative")
	}
	if config.MembershipPrice, err = decimal.NewFromString(getEnv("MEMBERSHIP_PRICE", "125.00")); err != nil {
		return nil, fmt.Errorf("invalid MEMBERSHIP_PRICE: %v", err)
	}
	productID, err := strconv.ParseUint(getEnv("MEMBERSHIP_PRODUCT_ID", "100"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid MEMBERSHIP_PRODUCT_ID: %v", err)
	}
	config.MembershipProductID = uint(productID)
	if config.ProcessorTimeout, err = time.ParseDuration(getEnv("PROCESSOR_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid PROCESSOR_TIMEOUT: %v", err)
	}

	return config, config.Validate()
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Zenobia.WebhookSecret == "" && c.Razorpay.WebhookSecret == "" {
		return fmt.Errorf("at least one processor webhook secret is required")
	}
	if c.ProcessorTimeout <= 0 {
		return fmt.Errorf("PROCESSOR_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
