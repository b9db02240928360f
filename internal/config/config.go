package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	envDevelopment = "development"
)

// Config holds the runtime configuration of the API.
type Config struct {
	AppPort     string
	AppEnv      string
	DBDriver    string
	DatabaseDSN string
	JWTSecret   string
	TokenTTL    time.Duration

	// Empty RabbitMQURL disables order events.
	RabbitMQURL         string
	OrderEventsConsumer bool

	PageSize    int
	MaxPageSize int

	ThrottleEnabled       bool
	ThrottleAnonPerMinute int
	ThrottleUserPerMinute int
	ThrottleBurst         int
}

// Load reads an optional .env file and then the environment, applying defaults
// for everything that is not set.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:               v.GetString("APP_PORT"),
		AppEnv:                strings.ToLower(v.GetString("APP_ENV")),
		DBDriver:              strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:           v.GetString("DATABASE_DSN"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		TokenTTL:              v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		OrderEventsConsumer:   v.GetBool("ORDER_EVENTS_CONSUMER"),
		PageSize:              v.GetInt("PAGE_SIZE"),
		MaxPageSize:           v.GetInt("MAX_PAGE_SIZE"),
		ThrottleEnabled:       v.GetBool("THROTTLE_ENABLED"),
		ThrottleAnonPerMinute: v.GetInt("THROTTLE_ANON_PER_MINUTE"),
		ThrottleUserPerMinute: v.GetInt("THROTTLE_USER_PER_MINUTE"),
		ThrottleBurst:         v.GetInt("THROTTLE_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", envDevelopment)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "littlelemon.db")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_EVENTS_CONSUMER", false)
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("THROTTLE_ENABLED", true)
	v.SetDefault("THROTTLE_ANON_PER_MINUTE", 30)
	v.SetDefault("THROTTLE_USER_PER_MINUTE", 120)
	v.SetDefault("THROTTLE_BURST", 10)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required when APP_ENV is %q", c.AppEnv)
		}
		c.JWTSecret = "dev_jwt_secret"
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.PageSize < 1 || c.MaxPageSize < c.PageSize {
		return fmt.Errorf("invalid page sizes: PAGE_SIZE=%d MAX_PAGE_SIZE=%d", c.PageSize, c.MaxPageSize)
	}
	if c.ThrottleEnabled && (c.ThrottleAnonPerMinute < 1 || c.ThrottleUserPerMinute < 1 || c.ThrottleBurst < 1) {
		return fmt.Errorf("throttle rates and burst must be positive when THROTTLE_ENABLED is set")
	}
	return nil
}

// IsDevelopment reports whether the API runs with development conveniences.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == envDevelopment || c.AppEnv == "test"
}
