package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string   `mapstructure:"PORT"`
	Env                  string   `mapstructure:"ENV"`
	BackendURL           string   `mapstructure:"BACKEND_URL"`
	BackendWSURL         string   `mapstructure:"BACKEND_WS_URL"`
	SessionSeconds       int      `mapstructure:"SESSION_SECONDS"`
	SessionWarnSeconds   int      `mapstructure:"SESSION_WARN_SECONDS"`
	HeartbeatSeconds     int      `mapstructure:"HEARTBEAT_SECONDS"`
	ReconnectDelaySecs   int      `mapstructure:"RECONNECT_DELAY_SECONDS"`
	ReconnectMaxAttempts int      `mapstructure:"RECONNECT_MAX_ATTEMPTS"`
	RedisURL             string   `mapstructure:"REDIS_URL"`
	DatabaseURL          string   `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir        string   `mapstructure:"MIGRATIONS_DIR"`
	AuditRetentionDays   int      `mapstructure:"AUDIT_RETENTION_DAYS"`
	CORSOrigins          []string `mapstructure:"CORS_ORIGINS"`
	LoginRateLimitRPS    float64  `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	LoginRateLimitBurst  int      `mapstructure:"LOGIN_RATE_LIMIT_BURST"`
	TLSEnabled           bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile          string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile           string   `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("SESSION_SECONDS", 1800)
	v.SetDefault("SESSION_WARN_SECONDS", 300)
	v.SetDefault("HEARTBEAT_SECONDS", 30)
	v.SetDefault("RECONNECT_DELAY_SECONDS", 5)
	v.SetDefault("RECONNECT_MAX_ATTEMPTS", 10)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("AUDIT_RETENTION_DAYS", 90)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 5)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("BACKEND_URL")
	v.BindEnv("BACKEND_WS_URL")
	v.BindEnv("SESSION_SECONDS")
	v.BindEnv("SESSION_WARN_SECONDS")
	v.BindEnv("HEARTBEAT_SECONDS")
	v.BindEnv("RECONNECT_DELAY_SECONDS")
	v.BindEnv("RECONNECT_MAX_ATTEMPTS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("AUDIT_RETENTION_DAYS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("LOGIN_RATE_LIMIT_RPS")
	v.BindEnv("LOGIN_RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.BackendWSURL == "" {
		cfg.BackendWSURL = deriveWSURL(cfg.BackendURL)
	}

	return cfg, nil
}

// deriveWSURL maps the backend's HTTP base URL onto the conventional
// permission-socket endpoint when BACKEND_WS_URL is not set explicitly.
func deriveWSURL(backendURL string) string {
	ws := backendURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/ws/permissions/"
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.SessionSeconds <= 0 {
		return fmt.Errorf("SESSION_SECONDS must be positive, got %d", c.SessionSeconds)
	}
	if c.SessionWarnSeconds < 0 || c.SessionWarnSeconds >= c.SessionSeconds {
		return fmt.Errorf("SESSION_WARN_SECONDS must be in [0, SESSION_SECONDS), got %d", c.SessionWarnSeconds)
	}
	if c.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("RECONNECT_MAX_ATTEMPTS must not be negative, got %d", c.ReconnectMaxAttempts)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
