package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKSYNC_DATABASE_URL for database.url.
const EnvPrefix = "TASKSYNC"

// defaults are applied before the config file and environment. Every key is
// registered here so viper can bind it from the environment when unmarshalling.
var defaults = map[string]interface{}{
	"server.port":             4000,
	"server.log_level":        "info",
	"server.read_timeout":     15 * time.Second,
	"server.write_timeout":    15 * time.Second,
	"server.shutdown_timeout": 10 * time.Second,
	"server.trust_proxy":      false,

	"database.url":               "",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 5 * time.Minute,

	"redis.url": "",

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 120,
	"auth.bcrypt_cost":            10,
	"auth.revocation_backend":     RevocationMemory,

	"rate_limit.login_attempts": 10,
	"rate_limit.login_window":   15 * time.Minute,

	"mail.enabled":  false,
	"mail.host":     "",
	"mail.port":     587,
	"mail.username": "",
	"mail.password": "",
	"mail.from":     "",

	"pusher.enabled": false,
	"pusher.app_id":  "",
	"pusher.key":     "",
	"pusher.secret":  "",
	"pusher.cluster": "",

	"app.frontend_url": "",

	"dispatch.workers":     2,
	"dispatch.queue_size":  100,
	"dispatch.job_timeout": 10 * time.Second,

	"cors.allowed_origins": []string{},
}

// Load reads configuration from defaults, an optional file and environment
// variables, in increasing order of precedence. An empty configFile skips
// the file step. The result is validated before it is returned.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated env values arrive as a single element.
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			fields := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Auth.RevocationBackend == RevocationRedis && cfg.Redis.URL == "" {
		return errors.New("invalid configuration: redis.url is required when auth.revocation_backend is redis")
	}
	return nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
