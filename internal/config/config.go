// Package config loads the frame server configuration from the environment,
// with an optional YAML file providing overrides for non-secret settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the fixed chain pairing. Payments are accepted on Base and
// settled against the storage registry on Optimism.
const (
	DefaultPaymentChainID    = "eip155:8453"
	DefaultSettlementChainID = "eip155:10"
	DefaultStorageRegistry   = "0x00000000fcce7f938e7ae6d3c335bd6a4a7c5c60"
	DefaultExplorerBaseURL   = "https://optimistic.etherscan.io"
)

// Config is the complete server configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	BasePath   string `yaml:"base_path"`
	PublicURL  string `yaml:"public_url"`
	LogLevel   string `yaml:"log_level"`

	Identity  IdentityConfig  `yaml:"identity"`
	Payment   PaymentConfig   `yaml:"payment"`
	Chain     ChainConfig     `yaml:"chain"`
	Validator ValidatorConfig `yaml:"validator"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// IdentityConfig points at the identity resolver service.
type IdentityConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"-"` // secret, environment only
	Timeout time.Duration `yaml:"timeout"`
}

// PaymentConfig points at the payment session coordinator.
type PaymentConfig struct {
	BaseURL           string        `yaml:"base_url"`
	ProjectID         string        `yaml:"-"` // secret, environment only
	Timeout           time.Duration `yaml:"timeout"`
	PaymentChainID    string        `yaml:"payment_chain_id"`
	SettlementChainID string        `yaml:"settlement_chain_id"`
	ExplorerBaseURL   string        `yaml:"explorer_base_url"`
}

// ChainConfig points at the settlement chain RPC node and pricing contract.
type ChainConfig struct {
	RPCURL          string        `yaml:"rpc_url"`
	StorageRegistry string        `yaml:"storage_registry"`
	Timeout         time.Duration `yaml:"timeout"`
}

// ValidatorConfig points at the frame signature validator used for
// xmtp-originated requests.
type ValidatorConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig bounds per-caller request rates.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// Load builds the configuration from the environment. If CONFIG_FILE is set,
// the YAML file is read first and environment variables override it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr: ":8080",
		BasePath:   "/api/frame",
		LogLevel:   "info",
		Identity: IdentityConfig{
			BaseURL: "https://api.neynar.com",
			Timeout: 10 * time.Second,
		},
		Payment: PaymentConfig{
			BaseURL:           "https://api.paywithglide.xyz",
			Timeout:           30 * time.Second,
			PaymentChainID:    DefaultPaymentChainID,
			SettlementChainID: DefaultSettlementChainID,
			ExplorerBaseURL:   DefaultExplorerBaseURL,
		},
		Chain: ChainConfig{
			RPCURL:          "https://mainnet.optimism.io",
			StorageRegistry: DefaultStorageRegistry,
			Timeout:         15 * time.Second,
		},
		Validator: ValidatorConfig{
			BaseURL: "https://frames.xmtp.org",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.BasePath, "BASE_PATH")
	setString(&cfg.PublicURL, "PUBLIC_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Identity.BaseURL, "IDENTITY_API_URL")
	setString(&cfg.Identity.APIKey, "IDENTITY_API_KEY")

	setString(&cfg.Payment.BaseURL, "PAYMENT_API_URL")
	setString(&cfg.Payment.ProjectID, "PAYMENT_PROJECT_ID")
	setString(&cfg.Payment.PaymentChainID, "PAYMENT_CHAIN_ID")
	setString(&cfg.Payment.SettlementChainID, "SETTLEMENT_CHAIN_ID")
	setString(&cfg.Payment.ExplorerBaseURL, "EXPLORER_BASE_URL")

	setString(&cfg.Chain.RPCURL, "CHAIN_RPC_URL")
	setString(&cfg.Chain.StorageRegistry, "STORAGE_REGISTRY_ADDRESS")

	setString(&cfg.Validator.BaseURL, "FRAME_VALIDATOR_URL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// validate checks hard requirements. A missing identity API key is not a
// startup failure; lookups will fail at call time instead.
func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address required")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base path must start with /: %q", c.BasePath)
	}
	if !strings.HasPrefix(c.Chain.StorageRegistry, "0x") {
		return fmt.Errorf("storage registry address must be 0x-prefixed: %q", c.Chain.StorageRegistry)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}
