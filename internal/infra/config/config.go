package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App        AppSettings        `mapstructure:"app"`
	API        APISettings        `mapstructure:"api"`
	Session    SessionSettings    `mapstructure:"session"`
	Permission PermissionSettings `mapstructure:"permission"`
	Storage    StorageSettings    `mapstructure:"storage"`
	Postgres   PostgresSettings   `mapstructure:"postgres"`
	Redis      RedisSettings      `mapstructure:"redis"`
	Kafka      KafkaSettings      `mapstructure:"kafka"`
	Telemetry  TelemetrySettings  `mapstructure:"telemetry"`
	RateLimit  RateLimitSettings  `mapstructure:"rate_limit"`
	Password   PasswordSettings   `mapstructure:"password"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// APISettings points the session client at the remote SI-PEDULI API.
type APISettings struct {
	BaseURL        string        `mapstructure:"base_url"`
	RefreshPath    string        `mapstructure:"refresh_path"`
	RefreshMethod  string        `mapstructure:"refresh_method"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SessionSettings configures the session lifecycle and the browser-facing cookie.
type SessionSettings struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
	RefreshSkew  time.Duration `mapstructure:"refresh_skew"`
	RestoreWait  time.Duration `mapstructure:"restore_wait"`
	LoginPath    string        `mapstructure:"login_path"`
	LogoutPath   string        `mapstructure:"logout_path"`
	ProfilePath  string        `mapstructure:"profile_path"`
	PasswordPath string        `mapstructure:"password_path"`
}

// PermissionSettings selects the resolver and optionally overrides the role matrix.
type PermissionSettings struct {
	Mode   string              `mapstructure:"mode"`
	Matrix map[string][]string `mapstructure:"matrix"`
}

// StorageSettings chooses the client storage backend.
type StorageSettings struct {
	Driver    string        `mapstructure:"driver"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Channel   string        `mapstructure:"channel"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the session event producer. No brokers means events are only logged.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures the login throttle window
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
}

// PasswordSettings tunes the strength pre-check applied before a password change is sent.
type PasswordSettings struct {
	MinLength int `mapstructure:"min_length"`
	MinScore  int `mapstructure:"min_score"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CONSOLE")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"api.base_url",
		"api.refresh_path",
		"api.refresh_method",
		"api.refresh_timeout",
		"api.request_timeout",
		"session.cookie_name",
		"session.cookie_secure",
		"session.cookie_domain",
		"session.cookie_max_age",
		"session.refresh_skew",
		"session.restore_wait",
		"session.login_path",
		"session.logout_path",
		"session.profile_path",
		"session.password_path",
		"permission.mode",
		"storage.driver",
		"storage.key_prefix",
		"storage.channel",
		"storage.ttl",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"password.min_length",
		"password.min_score",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	switch c.Storage.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", c.Storage.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sipeduli-console")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3000)
	v.SetDefault("app.allowed_origins", []string{})

	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.refresh_path", "/auth/refresh")
	v.SetDefault("api.refresh_method", "POST")
	v.SetDefault("api.refresh_timeout", "10s")
	v.SetDefault("api.request_timeout", "30s")

	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.cookie_domain", "")
	v.SetDefault("session.cookie_max_age", "168h")
	v.SetDefault("session.refresh_skew", "30s")
	v.SetDefault("session.restore_wait", "2s")
	v.SetDefault("session.login_path", "/auth/login")
	v.SetDefault("session.logout_path", "/auth/logout")
	v.SetDefault("session.profile_path", "/auth/me")
	v.SetDefault("session.password_path", "/auth/me/password")

	v.SetDefault("permission.mode", "role-matrix")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.key_prefix", "console:storage")
	v.SetDefault("storage.channel", "console:storage:events")
	v.SetDefault("storage.ttl", "168h")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "console")
	v.SetDefault("postgres.password", "console_password")
	v.SetDefault("postgres.database", "console")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "console:rate_limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "console")
	v.SetDefault("kafka.async", true)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "sipeduli-console")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)

	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.min_score", 2)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CONSOLE_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
