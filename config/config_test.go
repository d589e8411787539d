package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.True(t, decimal.RequireFromString("0.10").Equal(cfg.TaxRate))
	assert.Equal(t, 10, cfg.MaxTicketsPerTier)
	assert.True(t, decimal.NewFromInt(100).Equal(cfg.DepositAmount))
	assert.True(t, decimal.NewFromInt(250).Equal(cfg.InitialBalance))
	assert.Equal(t, "Christian Johnson", cfg.WalletOwner)
	assert.Equal(t, 60*time.Second, cfg.AssistantTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.15")
	t.Setenv("MAX_TICKETS_PER_TIER", "4")
	t.Setenv("ASSISTANT_TIMEOUT", "0s")
	t.Setenv("QR_SECRET", "00ff10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.15").Equal(cfg.TaxRate))
	assert.Equal(t, 4, cfg.MaxTicketsPerTier)
	assert.Zero(t, cfg.AssistantTimeout)
	key, err := cfg.QRKey()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, key)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"negative tax", "TAX_RATE", "-0.1"},
		{"zero cap", "MAX_TICKETS_PER_TIER", "0"},
		{"zero deposit", "DEPOSIT_AMOUNT", "0"},
		{"bad secret", "QR_SECRET", "not-hex"},
		{"bad duration", "ASSISTANT_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestConfig_AssistantKey(t *testing.T) {
	c := &Config{APIKey: "fallback"}
	assert.Equal(t, "fallback", c.AssistantKey())

	c.GeminiAPIKey = "primary"
	assert.Equal(t, "primary", c.AssistantKey())
}

func TestConfig_HTTPAddr(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr())
}
