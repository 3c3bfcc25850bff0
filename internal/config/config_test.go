package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.97, cfg.Billing.WaterSupplyRate)
	assert.Equal(t, 1.23, cfg.Billing.WaterSewageRate)
	assert.Equal(t, 0.85, cfg.Billing.WaterFixedFee)
	assert.Equal(t, 14, cfg.Billing.DueDays)
	assert.Equal(t, []int{12, 1, 2}, cfg.Gyvatukas.PeakWinterMonths)
	assert.Equal(t, 24*time.Hour, cfg.Gyvatukas.CacheTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.yaml")
	content := `
billing:
  water_supply_rate: 1.10
  due_days: 30
gyvatukas:
  temperature_delta: 50
  cache_ttl: 2h
  peak_winter_months: [1, 2]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BILLING_INVOICE_DUE_DAYS", "21")
	t.Setenv("GYVATUKAS_CACHE_BACKEND", "none")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.10, cfg.Billing.WaterSupplyRate)
	assert.Equal(t, 1.23, cfg.Billing.WaterSewageRate, "unset keys keep defaults")
	assert.Equal(t, 21, cfg.Billing.DueDays, "env overrides file")
	assert.Equal(t, 50.0, cfg.Gyvatukas.TemperatureDelta)
	assert.Equal(t, 2*time.Hour, cfg.Gyvatukas.CacheTTL)
	assert.Equal(t, []int{1, 2}, cfg.Gyvatukas.PeakWinterMonths)
	assert.Equal(t, CacheBackendNone, cfg.Gyvatukas.CacheBackend)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BILLING_WATER_FIXED_FEE", "abc")
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Billing.WaterFixedFee)
}

func TestValidateRanges(t *testing.T) {
	cases := map[string]func(*Config){
		"specific heat low":   func(c *Config) { c.Gyvatukas.WaterSpecificHeat = 0.1 },
		"specific heat high":  func(c *Config) { c.Gyvatukas.WaterSpecificHeat = 2.5 },
		"delta low":           func(c *Config) { c.Gyvatukas.TemperatureDelta = 10 },
		"delta high":          func(c *Config) { c.Gyvatukas.TemperatureDelta = 90 },
		"season month":        func(c *Config) { c.Gyvatukas.HeatingSeasonStartMonth = 13 },
		"whole year heating":  func(c *Config) { c.Gyvatukas.HeatingSeasonStartMonth, c.Gyvatukas.HeatingSeasonEndMonth = 5, 4 },
		"peak month":          func(c *Config) { c.Gyvatukas.PeakWinterMonths = []int{0} },
		"max apartments":      func(c *Config) { c.Gyvatukas.MaxApartments = 0 },
		"cache backend":       func(c *Config) { c.Gyvatukas.CacheBackend = "memcached" },
		"distribution method": func(c *Config) { c.Billing.DistributionMethod = "by_income" },
		"negative rate":       func(c *Config) { c.Billing.WaterSewageRate = -1 },
		"timezone":            func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
