package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"utility-billing/internal/logging"
)

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig configures the shared circulation cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BillingConfig holds invoice generation rates.
type BillingConfig struct {
	WaterSupplyRate    float64 `yaml:"water_supply_rate"`
	WaterSewageRate    float64 `yaml:"water_sewage_rate"`
	WaterFixedFee      float64 `yaml:"water_fixed_fee"`
	DueDays            int     `yaml:"due_days"`
	DistributionMethod string  `yaml:"distribution_method"`
	StrictTariffTypes  bool    `yaml:"strict_tariff_types"`
}

// GyvatukasConfig holds circulation calculation settings.
type GyvatukasConfig struct {
	HeatingSeasonStartMonth   int           `yaml:"heating_season_start_month"`
	HeatingSeasonEndMonth     int           `yaml:"heating_season_end_month"`
	WaterSpecificHeat         float64       `yaml:"water_specific_heat"`
	TemperatureDelta          float64       `yaml:"temperature_delta"`
	PeakWinterMonths          []int         `yaml:"peak_winter_months"`
	PeakWinterAdjustment      float64       `yaml:"peak_winter_adjustment"`
	MaxApartments             int           `yaml:"max_apartments"`
	CacheTTL                  time.Duration `yaml:"cache_ttl"`
	CacheBackend              string        `yaml:"cache_backend"`
	DefaultDistributionMethod string        `yaml:"default_distribution_method"`
}

// Config is the process configuration.
type Config struct {
	HTTPAddr  string          `yaml:"http_addr"`
	Timezone  string          `yaml:"timezone"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   logging.Config  `yaml:"logging"`
	Billing   BillingConfig   `yaml:"billing"`
	Gyvatukas GyvatukasConfig `yaml:"gyvatukas"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("config: invalid")
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Timezone: "UTC",
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logging: logging.DefaultConfig(),
		Billing: BillingConfig{
			WaterSupplyRate:    0.97,
			WaterSewageRate:    1.23,
			WaterFixedFee:      0.85,
			DueDays:            14,
			DistributionMethod: "equal",
		},
		Gyvatukas: GyvatukasConfig{
			HeatingSeasonStartMonth:   10,
			HeatingSeasonEndMonth:     4,
			WaterSpecificHeat:         1.163,
			TemperatureDelta:          45,
			PeakWinterMonths:          []int{12, 1, 2},
			PeakWinterAdjustment:      1.3,
			MaxApartments:             1000,
			CacheTTL:                  24 * time.Hour,
			CacheBackend:              CacheBackendMemory,
			DefaultDistributionMethod: "equal",
		},
	}
}

// Load reads .env (if present), the YAML file named by BILLING_CONFIG and
// environment overrides, in that order, then validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFile(os.Getenv("BILLING_CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("BILLING_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Timezone = getenvDefault("BILLING_TIMEZONE", cfg.Timezone)

	cfg.Database.DSN = getenvDefault("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.MaxOpenConns = getenvIntDefault("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.ConnMaxLifetime = getenvDuration("DATABASE_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvIntDefault("REDIS_DB", cfg.Redis.DB)

	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Output = getenvDefault("LOG_OUTPUT", cfg.Logging.Output)

	cfg.Billing.WaterSupplyRate = getenvFloatDefault("BILLING_WATER_SUPPLY_RATE", cfg.Billing.WaterSupplyRate)
	cfg.Billing.WaterSewageRate = getenvFloatDefault("BILLING_WATER_SEWAGE_RATE", cfg.Billing.WaterSewageRate)
	cfg.Billing.WaterFixedFee = getenvFloatDefault("BILLING_WATER_FIXED_FEE", cfg.Billing.WaterFixedFee)
	cfg.Billing.DueDays = getenvIntDefault("BILLING_INVOICE_DUE_DAYS", cfg.Billing.DueDays)
	cfg.Billing.DistributionMethod = getenvDefault("BILLING_DISTRIBUTION_METHOD", cfg.Billing.DistributionMethod)
	cfg.Billing.StrictTariffTypes = getenvBoolDefault("BILLING_STRICT_TARIFF_TYPES", cfg.Billing.StrictTariffTypes)

	g := &cfg.Gyvatukas
	g.HeatingSeasonStartMonth = getenvIntDefault("GYVATUKAS_HEATING_SEASON_START_MONTH", g.HeatingSeasonStartMonth)
	g.HeatingSeasonEndMonth = getenvIntDefault("GYVATUKAS_HEATING_SEASON_END_MONTH", g.HeatingSeasonEndMonth)
	g.WaterSpecificHeat = getenvFloatDefault("GYVATUKAS_WATER_SPECIFIC_HEAT", g.WaterSpecificHeat)
	g.TemperatureDelta = getenvFloatDefault("GYVATUKAS_TEMPERATURE_DELTA", g.TemperatureDelta)
	g.PeakWinterAdjustment = getenvFloatDefault("GYVATUKAS_PEAK_WINTER_ADJUSTMENT", g.PeakWinterAdjustment)
	g.MaxApartments = getenvIntDefault("GYVATUKAS_MAX_APARTMENTS", g.MaxApartments)
	g.CacheTTL = getenvDuration("GYVATUKAS_CACHE_TTL", g.CacheTTL)
	g.CacheBackend = getenvDefault("GYVATUKAS_CACHE_BACKEND", g.CacheBackend)
	g.DefaultDistributionMethod = getenvDefault("GYVATUKAS_DISTRIBUTION_METHOD", g.DefaultDistributionMethod)
	if months := splitInts(os.Getenv("GYVATUKAS_PEAK_WINTER_MONTHS")); len(months) > 0 {
		g.PeakWinterMonths = months
	}
}

// Validate checks ranges of the numeric settings.
func (c Config) Validate() error {
	g := c.Gyvatukas
	var problems []string

	if !validMonth(g.HeatingSeasonStartMonth) || !validMonth(g.HeatingSeasonEndMonth) {
		problems = append(problems, "heating season months must be within 1..12")
	}
	if g.HeatingSeasonStartMonth == g.HeatingSeasonEndMonth+1 || (g.HeatingSeasonStartMonth == 1 && g.HeatingSeasonEndMonth == 12) {
		problems = append(problems, "heating season must leave at least one summer month")
	}
	for _, m := range g.PeakWinterMonths {
		if !validMonth(m) {
			problems = append(problems, fmt.Sprintf("peak winter month %d out of range", m))
		}
	}
	if g.WaterSpecificHeat < 0.5 || g.WaterSpecificHeat > 2.0 {
		problems = append(problems, "water specific heat must be within 0.5..2.0")
	}
	if g.TemperatureDelta < 20 || g.TemperatureDelta > 80 {
		problems = append(problems, "temperature delta must be within 20..80")
	}
	if g.PeakWinterAdjustment <= 0 {
		problems = append(problems, "peak winter adjustment must be positive")
	}
	if g.MaxApartments <= 0 {
		problems = append(problems, "max apartments must be positive")
	}
	if g.CacheTTL <= 0 {
		problems = append(problems, "cache ttl must be positive")
	}
	switch g.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown cache backend %q", g.CacheBackend))
	}
	if !validMethod(g.DefaultDistributionMethod) || !validMethod(c.Billing.DistributionMethod) {
		problems = append(problems, "distribution method must be equal or area")
	}

	b := c.Billing
	if b.WaterSupplyRate < 0 || b.WaterSewageRate < 0 || b.WaterFixedFee < 0 {
		problems = append(problems, "water rates must not be negative")
	}
	if b.DueDays < 0 {
		problems = append(problems, "due days must not be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured billing time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validMonth(m int) bool { return m >= 1 && m <= 12 }

func validMethod(m string) bool { return m == "equal" || m == "area" }

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitInts(value string) []int {
	if value == "" {
		return nil
	}
	var result []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil {
			result = append(result, n)
		}
	}
	return result
}
