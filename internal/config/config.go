// Package config loads a core.Config from a config file, a .env file and the
// process environment, in increasing order of precedence.
//
// Credentials are read from BINANCE_API_KEY and BINANCE_SECRET_KEY. Every other
// key can be overridden with a FAPI_ prefixed variable, e.g. FAPI_RECV_WINDOW=5s.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fapidemo/pkg/core"
)

const (
	EnvAPIKey    = "BINANCE_API_KEY"
	EnvSecretKey = "BINANCE_SECRET_KEY"
	envPrefix    = "FAPI"

	defaultEnvFile = ".env"
)

type options struct {
	file        string
	envFile     string
	envRequired bool
}

type Option func(*options)

// WithFile reads a YAML, JSON or TOML config file. The format follows the extension.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnvFile loads variables from path instead of ./.env. Unlike the default
// file, an explicit one must exist.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
		o.envRequired = true
	}
}

// Load builds a validated core.Config. Variables already present in the
// environment win over the .env file.
func Load(opts ...Option) (*core.Config, error) {
	o := &options{envFile: defaultEnvFile}
	for _, opt := range opts {
		opt(o)
	}

	if err := godotenv.Load(o.envFile); err != nil {
		if o.envRequired || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", o.envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("credentials.api_key", EnvAPIKey); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvAPIKey, err)
	}
	if err := v.BindEnv("credentials.secret_key", EnvSecretKey); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvSecretKey, err)
	}

	if o.file != "" {
		v.SetConfigFile(o.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", o.file, err)
		}
	}

	var cfg core.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults mirrors core.DefaultConfig, except that base_url is left empty so
// the testnet flag picks the host.
func setDefaults(v *viper.Viper) {
	d := core.DefaultConfig()

	v.SetDefault("credentials.api_key", "")
	v.SetDefault("credentials.secret_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("testnet", d.Testnet)
	v.SetDefault("insecure_skip_verify", d.InsecureSkipVerify)
	v.SetDefault("recv_window", d.RecvWindow)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_level", d.LogLevel)
}
