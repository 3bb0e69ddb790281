package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"`
	Pusher    PusherConfig    `mapstructure:"pusher"`
	App       AppConfig       `mapstructure:"app"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch" validate:"required"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// TrustProxy makes the server take the client address from
	// X-Forwarded-For and X-Real-IP. Enable only behind a proxy that
	// overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// RedisConfig points at the Redis instance used for token revocation.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Revocation backends.
const (
	RevocationRedis    = "redis"
	RevocationPostgres = "postgres"
	RevocationMemory   = "memory"
)

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	// RevocationBackend selects where revoked tokens are recorded.
	RevocationBackend string `mapstructure:"revocation_backend" validate:"required,oneof=redis postgres memory"`
}

// RateLimitConfig bounds login attempts per client IP.
type RateLimitConfig struct {
	LoginAttempts int           `mapstructure:"login_attempts" validate:"required,gt=0"`
	LoginWindow   time.Duration `mapstructure:"login_window" validate:"required,gt=0"`
}

// MailConfig configures outbound SMTP notifications.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"required_if=Enabled true,gte=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required_if=Enabled true"`
}

// PusherConfig configures realtime notifications.
type PusherConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AppID   string `mapstructure:"app_id" validate:"required_if=Enabled true"`
	Key     string `mapstructure:"key" validate:"required_if=Enabled true"`
	Secret  string `mapstructure:"secret" validate:"required_if=Enabled true"`
	Cluster string `mapstructure:"cluster" validate:"required_if=Enabled true"`
}

// AppConfig holds settings about the client application.
type AppConfig struct {
	FrontendURL string `mapstructure:"frontend_url" validate:"omitempty,url"`
}

// DispatchConfig sizes the background side-effect workers.
type DispatchConfig struct {
	Workers    int           `mapstructure:"workers" validate:"required,gt=0"`
	QueueSize  int           `mapstructure:"queue_size" validate:"required,gt=0"`
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"required,gt=0"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TokenLifetime returns the configured session token lifetime.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}
