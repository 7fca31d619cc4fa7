package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	BaseURL   string
	LedgerURL string
	Principal string
	LogLevel  string

	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	PollTries    int
	PollInterval time.Duration
	PageSize     int
	MetaTTL      time.Duration
	SlippagePct  decimal.Decimal
	EventsCutoff time.Time

	MetricsAddr string
}

var (
	ErrMissingBaseURL = errors.New("base_url is required")
	ErrInvalidURL     = errors.New("invalid url")
	ErrInvalidValue   = errors.New("invalid configuration value")
)

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".vaultswap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values
	v.SetDefault("base_url", "http://127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 5)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("poll_tries", 12)
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("page_size", 20)
	v.SetDefault("meta_ttl", "5m")
	v.SetDefault("slippage_pct", "0.5")
	v.SetDefault("events_cutoff", "2024-12-31T15:00:00Z")

	// Read from environment variables
	v.SetEnvPrefix("VAULTSWAP")
	v.AutomaticEnv()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	slippage, err := decimal.NewFromString(v.GetString("slippage_pct"))
	if err != nil {
		return nil, fmt.Errorf("%w: slippage_pct: %w", ErrInvalidValue, err)
	}
	cutoff, err := time.Parse(time.RFC3339, v.GetString("events_cutoff"))
	if err != nil {
		return nil, fmt.Errorf("%w: events_cutoff: %w", ErrInvalidValue, err)
	}

	cfg := &Config{
		BaseURL:        v.GetString("base_url"),
		LedgerURL:      v.GetString("ledger_url"),
		Principal:      v.GetString("principal"),
		LogLevel:       v.GetString("log_level"),
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		RequestTimeout: v.GetDuration("request_timeout"),
		PollTries:      v.GetInt("poll_tries"),
		PollInterval:   v.GetDuration("poll_interval"),
		PageSize:       v.GetInt("page_size"),
		MetaTTL:        v.GetDuration("meta_ttl"),
		SlippagePct:    slippage,
		EventsCutoff:   cutoff,
		MetricsAddr:    v.GetString("metrics_addr"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if err := checkURL(c.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if c.LedgerURL != "" {
		if err := checkURL(c.LedgerURL); err != nil {
			return fmt.Errorf("ledger_url: %w", err)
		}
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidValue)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidValue)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidValue)
	}
	if c.SlippagePct.IsNegative() || c.SlippagePct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: slippage_pct must be in [0, 100)", ErrInvalidValue)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
