package linnworks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orderprofit/backend/internal/domain/integration"
)

const (
	// DefaultAPIBaseURL is the EU extension API endpoint
	DefaultAPIBaseURL = "https://eu-ext.linnworks.net/api/"
	// DefaultAuthURL is the application authorization endpoint
	DefaultAuthURL = "https://api.linnworks.net/api/Auth/AuthorizeByApplication"
)

// ErrConfigMissingBaseURL is returned when the API base URL is blank
var ErrConfigMissingBaseURL = errors.New("linnworks: API base URL is required")

// Config holds configuration for the Linnworks API integration
type Config struct {
	// APIBaseURL is the base URL for order and inventory calls
	APIBaseURL string
	// AuthURL is the application authorization endpoint
	AuthURL string
	// ApplicationID identifies the registered application
	ApplicationID string
	// ApplicationSecret is the application secret
	ApplicationSecret string
	// InstallToken is the installation token granted by the account owner
	InstallToken string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// DefaultLookbackDays bounds order searches that omit a date range
	DefaultLookbackDays int
}

// NewConfig creates a configuration with production endpoints
func NewConfig() *Config {
	return &Config{
		APIBaseURL:          DefaultAPIBaseURL,
		AuthURL:             DefaultAuthURL,
		TimeoutSeconds:      30,
		DefaultLookbackDays: 120,
	}
}

// Validate validates the settings needed for order and inventory calls
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.DefaultLookbackDays <= 0 {
		c.DefaultLookbackDays = 120
	}
	return nil
}

// ValidateAuth checks the application credentials and names every missing one
func (c *Config) ValidateAuth() error {
	var missing []string
	if c.ApplicationID == "" {
		missing = append(missing, "PROFIT_LINNWORKS_APPLICATION_ID")
	}
	if c.ApplicationSecret == "" {
		missing = append(missing, "PROFIT_LINNWORKS_APPLICATION_SECRET")
	}
	if c.InstallToken == "" {
		missing = append(missing, "PROFIT_LINNWORKS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing Linnworks credentials: %s",
			integration.ErrPlatformNotConfigured, strings.Join(missing, ", "))
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	return nil
}

// endpoint joins the base URL and a relative API path
func (c *Config) endpoint(path string) string {
	return strings.TrimSuffix(c.APIBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
