package config

import (
	"fmt"
	"strings"

	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	ConvertKit ConvertKitConfig `mapstructure:"convertkit"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                  string `mapstructure:"host" validate:"required"`
	Port                  int    `mapstructure:"port" validate:"required"`
	User                  string `mapstructure:"user" validate:"required"`
	Password              string `mapstructure:"password"`
	DBName                string `mapstructure:"dbname" validate:"required"`
	SSLMode               string `mapstructure:"sslmode"`
	MaxOpenConns          int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns          int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinute int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	AutoMigrate           bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type SupabaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
	// JWTSecret enables local HS256 validation of Supabase access tokens.
	// When empty, tokens are validated remotely against the Supabase API.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PlanPrice maps one provider price id to the internal tier it sells.
type PlanPrice struct {
	Plan    types.PlanType       `mapstructure:"plan"`
	Cadence types.BillingCadence `mapstructure:"cadence"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// Prices is the price-id -> (plan, cadence) catalog. Keys are provider
	// price ids (price_...).
	Prices map[string]PlanPrice `mapstructure:"prices"`
}

type ConvertKitConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APISecret string `mapstructure:"api_secret"`
	// Tags maps an internal plan name to the marketing tag id applied when a
	// subscription on that plan becomes entitled.
	Tags map[string]string `mapstructure:"tags"`
	// TrialSequence is the name of the trial nurture sequence whose pending
	// sends are cancelled when a user upgrades from trial to paid.
	TrialSequence     string  `mapstructure:"trial_sequence"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// NewConfig loads configuration from config.yaml and environment variables.
// Environment variables use underscores for nesting, ex: STRIPE_WEBHOOK_SECRET.
func NewConfig() (*Configuration, error) {
	// Load .env if present; real environments configure via the process env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrSystem)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrSystem)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.RunModeDev))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.dbname", "elevate")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("convertkit.base_url", "https://api.convertkit.com")
	v.SetDefault("convertkit.requests_per_second", 2)
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("cache.ttl_seconds", 300)
}

// Validate checks structural validity of the loaded configuration.
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid configuration").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DSN builds the Postgres connection string for the configured database.
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode,
	)
}

// GetDefaultConfig returns a minimal configuration used before the real one
// is loaded (ex: the global logger fallback) and in tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.RunModeDev},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "elevate",
			SSLMode: "disable",
		},
		ConvertKit: ConvertKitConfig{
			BaseURL:           "https://api.convertkit.com",
			RequestsPerSecond: 2,
		},
		Cache: CacheConfig{TTLSeconds: 300},
	}
}
