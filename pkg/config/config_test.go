package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, BackendRealtime, cfg.ProductBackend)
	assert.Equal(t, 3*time.Second, cfg.PurchaseOverlayDelay)
	assert.Equal(t, "seller", cfg.SellerClaim)
}

func TestValidateFirebaseNeedsProject(t *testing.T) {
	cfg := &Config{
		StoreBackend:         BackendFirebase,
		ProductBackend:       BackendRealtime,
		PurchaseOverlayDelay: time.Second,
		RealtimePollInterval: time.Second,
	}

	assert.Error(t, cfg.Validate())

	cfg.FirebaseProject = "demo"
	cfg.FirebaseDatabaseURL = "https://demo.firebaseio.com"
	assert.NoError(t, cfg.Validate())
}

func TestValidateFirestoreNeedsFirebaseStore(t *testing.T) {
	cfg := &Config{
		StoreBackend:         BackendMemory,
		ProductBackend:       BackendFirestore,
		PurchaseOverlayDelay: time.Second,
		RealtimePollInterval: time.Second,
	}

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	cfg := &Config{
		Environment:          "production",
		StoreBackend:         BackendMemory,
		ProductBackend:       BackendRealtime,
		JWTSecret:            DefaultJWTSecret,
		PurchaseOverlayDelay: time.Second,
		RealtimePollInterval: time.Second,
	}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "4f9c2e71d0"
	assert.NoError(t, cfg.Validate())

	cfg.Environment = "development"
	cfg.JWTSecret = DefaultJWTSecret
	assert.NoError(t, cfg.Validate())
}
