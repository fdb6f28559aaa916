package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alijeyrad/carevisit_backend/pkg/constants"
)

// ReadConfig loads config.yaml from configPath and applies CAREVISIT_* env overrides.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. CAREVISIT_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func MustReadConfig(path string) *Config {
	cfg, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.body_limit_mb", 20)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("casbin_database.port", 5432)
	v.SetDefault("casbin_database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("authentication.otp_ttl_minutes", 10)
	v.SetDefault("authentication.max_login_attempts", 5)
	v.SetDefault("authentication.lockout_minutes", 15)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", "carevisit")
	v.SetDefault("authentication.paseto.audience", "carevisit-api")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 30)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 30)

	v.SetDefault("authorization.casbin_model_path", "casbin_model.conf")
	v.SetDefault("authorization.superadmin_bypass", true)

	v.SetDefault("password.algorithm", "argon2id")
	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.iterations", 3)
	v.SetDefault("password.parallelism", 2)
	v.SetDefault("password.salt_length", 16)
	v.SetDefault("password.key_length", 32)
	v.SetDefault("password.min_length", 6)

	v.SetDefault("otp.default_length", 6)
	v.SetDefault("codes.token_byte_length", 24)

	v.SetDefault("scheduling.timezone", "Asia/Tokyo")
	v.SetDefault("scheduling.max_occurrences", 366)
	v.SetDefault("scheduling.default_event_minutes", 60)

	v.SetDefault("ics.past_days", 30)
	v.SetDefault("ics.future_days", 180)
	v.SetDefault("ics.cache_ttl_seconds", 300)
	v.SetDefault("ics.calendar_name", "Care Visits")

	v.SetDefault("documents.max_size_mb", 20)
	v.SetDefault("documents.allowed_content_types", []string{
		"application/pdf", "image/jpeg", "image/png", "image/heic", "text/plain",
	})

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.interval_seconds", 60)
	v.SetDefault("reminders.batch_size", 200)
	v.SetDefault("reminders.emails_per_second", 5)

	v.SetDefault("phone.default_region", "JP")

	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("s3.presign_ttl_sec", 900)
}
