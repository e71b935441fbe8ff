package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendMemory    = "memory"
	BackendFirebase  = "firebase"
	BackendRealtime  = "realtime"
	BackendFirestore = "firestore"
)

// DefaultJWTSecret signs development tokens when JWT_SECRET is unset.
const DefaultJWTSecret = "your-secret-key"

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend   string `env:"STORE_BACKEND" envDefault:"memory"`
	ProductBackend string `env:"PRODUCT_BACKEND" envDefault:"realtime"`

	FirebaseProject         string `env:"FIREBASE_PROJECT_ID"`
	FirebaseDatabaseURL     string `env:"FIREBASE_DATABASE_URL"`
	FirebaseApiKey          string `env:"FIREBASE_API_KEY"`
	FirebaseCredentialsJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	FirebaseCredentialsPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	StorageBucket           string `env:"STORAGE_BUCKET"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"your-secret-key"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	PurchaseOverlayDelay time.Duration `env:"PURCHASE_OVERLAY_DELAY" envDefault:"3s"`
	RealtimePollInterval time.Duration `env:"REALTIME_POLL_INTERVAL" envDefault:"1s"`
	ReviewRatePerMinute  int           `env:"REVIEW_RATE_PER_MINUTE" envDefault:"10"`

	SellerClaim string `env:"SELLER_CLAIM" envDefault:"seller"`
	AdminClaim  string `env:"ADMIN_CLAIM" envDefault:"admin"`
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
		if !c.IsDevelopment() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
			return fmt.Errorf("JWT_SECRET must be set outside development")
		}
	case BackendFirebase:
		if c.FirebaseProject == "" || c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=firebase requires FIREBASE_PROJECT_ID and FIREBASE_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.ProductBackend {
	case BackendRealtime:
	case BackendFirestore:
		if c.StoreBackend != BackendFirebase {
			return fmt.Errorf("PRODUCT_BACKEND=firestore requires STORE_BACKEND=firebase")
		}
	default:
		return fmt.Errorf("unknown PRODUCT_BACKEND %q", c.ProductBackend)
	}

	if c.PurchaseOverlayDelay <= 0 {
		return fmt.Errorf("PURCHASE_OVERLAY_DELAY must be positive")
	}
	if c.RealtimePollInterval <= 0 {
		return fmt.Errorf("REALTIME_POLL_INTERVAL must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
