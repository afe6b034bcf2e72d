package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const defaultConfigName = "config.yaml"

// Load builds configuration from defaults, an optional yaml config file, and
// environment variables. Precedence: defaults < config file < env vars.
func Load(explicitPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("database_dsn", cfg.DatabaseDSN)
	v.SetDefault("amqp_url", cfg.AMQPURL)
	v.SetDefault("amqp_exchange", cfg.AMQPExchange)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("otlp_endpoint", cfg.OTLPEndpoint)
	v.SetDefault("environment", cfg.Environment)

	v.SetEnvPrefix("ROOMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := explicitPath
	if path == "" {
		path = defaultConfigName
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		// A missing file is fine unless the caller named it explicitly.
		if !missing || explicitPath != "" {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
