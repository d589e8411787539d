package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server configuration; HOST:PORT is the default `serve --http` address.
	Host        string `env:"HOST" envDefault:"127.0.0.1"`
	Port        string `env:"PORT" envDefault:"8090"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Redis is optional; without it the assistant uses an in-process guard
	// and rate limiting is off.
	RedisURL string `env:"REDIS_URL"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`
	PubNubUserID       string `env:"PUBNUB_USER_ID" envDefault:"eventhorizon-server"`

	// Assistant
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	APIKey             string        `env:"API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	AssistantTimeout   time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"60s"`
	AssistantRateLimit int64         `env:"ASSISTANT_RATE_LIMIT" envDefault:"20"`

	// Storefront
	TaxRate           decimal.Decimal `env:"TAX_RATE" envDefault:"0.10"`
	MaxTicketsPerTier int             `env:"MAX_TICKETS_PER_TIER" envDefault:"10"`
	DepositAmount     decimal.Decimal `env:"DEPOSIT_AMOUNT" envDefault:"100"`
	InitialBalance    decimal.Decimal `env:"INITIAL_BALANCE" envDefault:"250"`
	WalletOwner       string          `env:"WALLET_OWNER" envDefault:"Christian Johnson"`
	QRSecret          string          `env:"QR_SECRET"`
	CatalogFile       string          `env:"CATALOG_FILE"`

	// Monitoring
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`
}

func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("TAX_RATE must not be negative, got %s", c.TaxRate)
	}
	if c.MaxTicketsPerTier <= 0 {
		return fmt.Errorf("MAX_TICKETS_PER_TIER must be positive, got %d", c.MaxTicketsPerTier)
	}
	if !c.DepositAmount.IsPositive() {
		return fmt.Errorf("DEPOSIT_AMOUNT must be positive, got %s", c.DepositAmount)
	}
	if c.InitialBalance.IsNegative() {
		return fmt.Errorf("INITIAL_BALANCE must not be negative, got %s", c.InitialBalance)
	}
	if c.AssistantTimeout < 0 {
		return fmt.Errorf("ASSISTANT_TIMEOUT must not be negative, got %s", c.AssistantTimeout)
	}
	if _, err := c.QRKey(); err != nil {
		return err
	}
	return nil
}

// AssistantKey prefers GEMINI_API_KEY over API_KEY.
func (c *Config) AssistantKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// QRKey decodes QR_SECRET; nil means a per-process key is generated.
func (c *Config) QRKey() ([]byte, error) {
	if c.QRSecret == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.QRSecret)
	if err != nil {
		return nil, fmt.Errorf("QR_SECRET must be hex: %w", err)
	}
	return key, nil
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
