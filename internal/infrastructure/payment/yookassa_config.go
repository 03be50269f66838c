package payment

import (
	"errors"

	"github.com/menohub/backend/internal/domain/commerce"
)

const defaultYooKassaBaseURL = "https://api.yookassa.ru/v3"

// YooKassaConfig contains configuration for the YooKassa API
type YooKassaConfig struct {
	// ShopID is the YooKassa shop identifier
	ShopID string
	// SecretKey is the API secret key paired with ShopID
	SecretKey string
	// APIBaseURL overrides the production endpoint, mainly for tests
	APIBaseURL string
	// Mode is resolved once at startup, test or production
	Mode commerce.PaymentMode
	// TestFallbackEnabled allows serving a synthetic redirect when the
	// credentials are absent. Never valid in production mode.
	TestFallbackEnabled bool
	// Currency for every payment amount
	Currency string
}

// Errors for configuration validation
var (
	ErrYooKassaMissingCredentials = errors.New("yookassa: shop ID and secret key are required unless the test fallback is enabled")
	ErrYooKassaInvalidMode        = errors.New("yookassa: mode must be test or production")
	ErrYooKassaFallbackInProd     = errors.New("yookassa: test fallback cannot be enabled in production mode")
)

// Configured reports whether real API credentials are present.
func (c *YooKassaConfig) Configured() bool {
	return c.ShopID != "" && c.SecretKey != ""
}

// Validate validates the configuration
func (c *YooKassaConfig) Validate() error {
	if !c.Mode.IsValid() {
		return ErrYooKassaInvalidMode
	}
	if c.Mode == commerce.PaymentModeProduction && c.TestFallbackEnabled {
		return ErrYooKassaFallbackInProd
	}
	if !c.Configured() && !c.TestFallbackEnabled {
		return ErrYooKassaMissingCredentials
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultYooKassaBaseURL
	}
	if c.Currency == "" {
		c.Currency = "RUB"
	}
	return nil
}
