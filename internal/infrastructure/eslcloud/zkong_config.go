package eslcloud

import "errors"

const (
	// DefaultAPIBaseURL is the vendor's cloud gateway
	DefaultAPIBaseURL = "https://blev29.kalanda.info/api-esl"
	// DefaultAssetBaseURL serves template preview images
	DefaultAssetBaseURL = "https://esl.zkong.com/"

	// defaultLightTimeoutSeconds covers key fetch, store listing and
	// bind/unbind calls; defaultHeavyTimeoutSeconds covers the token
	// exchange, template listing and item uploads.
	defaultLightTimeoutSeconds = 10
	defaultHeavyTimeoutSeconds = 30
)

var (
	ErrConfigMissingBaseURL = errors.New("eslcloud: missing API base URL")
	ErrConfigBadTimeout     = errors.New("eslcloud: timeout must be positive")
)

// Config holds the connection settings for the Zkong ESL cloud
type Config struct {
	// APIBaseURL is the gateway prefix, without trailing slash
	APIBaseURL string
	// AssetBaseURL is the base for template preview URLs
	AssetBaseURL string
	// LightTimeoutSeconds applies to lightweight calls
	LightTimeoutSeconds int
	// HeavyTimeoutSeconds applies to token and template calls
	HeavyTimeoutSeconds int
}

// NewConfig creates a config pointing at the production gateway
func NewConfig() *Config {
	return &Config{
		APIBaseURL:          DefaultAPIBaseURL,
		AssetBaseURL:        DefaultAssetBaseURL,
		LightTimeoutSeconds: defaultLightTimeoutSeconds,
		HeavyTimeoutSeconds: defaultHeavyTimeoutSeconds,
	}
}

// Validate checks required fields and fills in defaults
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AssetBaseURL == "" {
		c.AssetBaseURL = DefaultAssetBaseURL
	}
	if c.LightTimeoutSeconds == 0 {
		c.LightTimeoutSeconds = defaultLightTimeoutSeconds
	}
	if c.HeavyTimeoutSeconds == 0 {
		c.HeavyTimeoutSeconds = defaultHeavyTimeoutSeconds
	}
	if c.LightTimeoutSeconds < 0 || c.HeavyTimeoutSeconds < 0 {
		return ErrConfigBadTimeout
	}
	return nil
}
