package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DemoBaseURL is the Binance USDⓈ-M Futures demo trading host.
const DemoBaseURL = "https://testnet.binancefuture.com"

// MaxRecvWindow is the largest recvWindow the exchange accepts.
const MaxRecvWindow = 60 * time.Second

// Credentials holds API authentication credentials for an exchange.
// The secret never leaves the process except as an HMAC key: it is excluded
// from JSON and masked by String and zerolog.
type Credentials struct {
	// APIKey is the public API key identifier, sent as a header.
	APIKey string `json:"api_key" mapstructure:"api_key"`
	// SecretKey is the private key used for signing requests.
	SecretKey string `json:"-" mapstructure:"secret_key"`
}

// Empty reports whether either half of the key pair is missing.
func (c Credentials) Empty() bool {
	return c.APIKey == "" || c.SecretKey == ""
}

// String implements fmt.Stringer with both values masked.
func (c Credentials) String() string {
	return "Credentials{APIKey: " + maskKey(c.APIKey) + ", SecretKey: ****}"
}

// GoString keeps %#v from printing the secret.
func (c Credentials) GoString() string {
	return c.String()
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("api_key", maskKey(c.APIKey))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Config contains all configuration options for a futures client.
type Config struct {
	Credentials Credentials `json:"credentials" mapstructure:"credentials"`

	// BaseURL overrides the exchange host, mainly for tests.
	BaseURL string `json:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	// Testnet marks the target as a demo environment.
	Testnet bool `json:"testnet" mapstructure:"testnet"`
	// InsecureSkipVerify disables TLS certificate verification. Only allowed with Testnet.
	InsecureSkipVerify bool `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	// RecvWindow is how long after its timestamp the server accepts a signed request.
	RecvWindow time.Duration `json:"recv_window" mapstructure:"recv_window" validate:"min=1ms,max=60s"`
	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"min=1ms"`

	LogLevel string `json:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config targeting the demo host.
// Default values: 60s recvWindow, 10s timeout, TLS verification on.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DemoBaseURL,
		Testnet:    true,
		RecvWindow: 60 * time.Second,
		Timeout:    10 * time.Second,
		LogLevel:   "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.InsecureSkipVerify && !c.Testnet {
		return errors.New("InsecureSkipVerify is only allowed when Testnet is set")
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL sets the exchange host and returns the config for chaining.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithTestnet marks the target as a demo environment and returns the config for chaining.
func (c *Config) WithTestnet(testnet bool) *Config {
	c.Testnet = testnet
	return c
}

// WithInsecureSkipVerify toggles TLS certificate verification and returns the config for chaining.
func (c *Config) WithInsecureSkipVerify(skip bool) *Config {
	c.InsecureSkipVerify = skip
	return c
}

// WithRecvWindow sets the signed request validity window and returns the config for chaining.
func (c *Config) WithRecvWindow(window time.Duration) *Config {
	c.RecvWindow = window
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}
