package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, 12, cfg.PollTries)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.MetaTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.SlippagePct.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC), cfg.EventsCutoff.UTC())
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("VAULTSWAP_PRINCIPAL", "aaaaa-aa")
	t.Setenv("VAULTSWAP_PAGE_SIZE", "5")
	t.Setenv("VAULTSWAP_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "aaaaa-aa", cfg.Principal)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
}

func TestLoad_ConfigFile(t *testing.T) {
	home := isolate(t)
	yaml := "base_url: https://pool.example.org\nledger_url: https://ledger.example.org\npoll_tries: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vaultswap.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://pool.example.org", cfg.BaseURL)
	assert.Equal(t, "https://ledger.example.org", cfg.LedgerURL)
	assert.Equal(t, 4, cfg.PollTries)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("url scheme", func(t *testing.T) {
		isolate(t)
		t.Setenv("VAULTSWAP_BASE_URL", "ftp://pool")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidURL)
	})
	t.Run("slippage", func(t *testing.T) {
		isolate(t)
		t.Setenv("VAULTSWAP_SLIPPAGE_PCT", "lots")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
	t.Run("cutoff", func(t *testing.T) {
		isolate(t)
		t.Setenv("VAULTSWAP_EVENTS_CUTOFF", "yesterday")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		BaseURL:        "https://pool.example.org",
		RequestTimeout: time.Second,
		PageSize:       20,
		SlippagePct:    decimal.RequireFromString("0.5"),
	}
	require.NoError(t, valid.Validate())

	c := valid
	c.BaseURL = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingBaseURL)

	c = valid
	c.PageSize = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidValue)

	c = valid
	c.SlippagePct = decimal.NewFromInt(100)
	assert.ErrorIs(t, c.Validate(), ErrInvalidValue)

	c = valid
	c.LedgerURL = "not a url"
	assert.ErrorIs(t, c.Validate(), ErrInvalidURL)
}
