package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	DatabaseDriver string        `mapstructure:"database-driver"`
	DatabaseURL    string        `mapstructure:"database-url"`
	SessionSecret  string        `mapstructure:"session-secret"`
	SessionTTL     time.Duration `mapstructure:"session-ttl"`
	RateLimitRPS   float64       `mapstructure:"rate-limit-rps"`
	RateLimitBurst int           `mapstructure:"rate-limit-burst"`
	LogLevel       string        `mapstructure:"log-level"`
	LogDir         string        `mapstructure:"log-dir"`
	Production     bool          `mapstructure:"production"`
}

type serverFile struct {
	Server ServerConfig `mapstructure:"server"`
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.database-driver", "sqlite")
	v.SetDefault("server.database-url", DefaultDBPath())
	v.SetDefault("server.session-secret", "")
	v.SetDefault("server.session-ttl", 30*time.Minute)
	v.SetDefault("server.rate-limit-rps", 5.0)
	v.SetDefault("server.rate-limit-burst", 10)
	v.SetDefault("server.log-level", "info")
	v.SetDefault("server.log-dir", DefaultLogDir())
	v.SetDefault("server.production", false)
}

// LoadServerConfig reads the [server] table of the TOML config at path,
// applying defaults and CODETYPE_SERVER_* environment overrides. A missing
// file is not an error.
func LoadServerConfig(path string) (ServerConfig, error) {
	v := viper.New()
	setServerDefaults(v)

	v.SetEnvPrefix("CODETYPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return ServerConfig{}, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return ServerConfig{}, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	var out serverFile
	if err := v.Unmarshal(&out); err != nil {
		return ServerConfig{}, fmt.Errorf("failed to decode server config: %w", err)
	}
	return out.Server, nil
}

// Validate checks settings the server cannot run without.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("server.port must be set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("server.session-secret must be set (CODETYPE_SERVER_SESSION_SECRET)"))
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "postgresql":
	default:
		errs = append(errs, fmt.Errorf("unsupported server.database-driver %q", c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("server.database-url must be set"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("server.session-ttl must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("server rate limit must be positive"))
	}
	return errors.Join(errs...)
}
