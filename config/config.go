package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for pannier.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// PublicURL is the externally reachable base URL used in share links.
	// Empty derives it from each request.
	PublicURL string `mapstructure:"public_url" validate:"omitempty,url"`
}

// StoreConfig holds object store backend configuration.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=fs memory sqlite postgres"`
	// Path is the data directory for the fs backend.
	Path string `mapstructure:"path" validate:"required_if=Backend fs"`
	// DSN is the database address for the sqlite and postgres backends.
	DSN string `mapstructure:"dsn" validate:"required_if=Backend sqlite,required_if=Backend postgres"`
	// Compress gzips payloads at rest (fs backend only).
	Compress bool `mapstructure:"compress"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Username     string `mapstructure:"username" validate:"required_if=Enabled true"`
	Password     string `mapstructure:"password" validate:"required_if=Enabled true"`
	Mode         string `mapstructure:"mode" validate:"required,oneof=cookie token"`
	CookieName   string `mapstructure:"cookie_name" validate:"required"`
	CookieMaxAge int    `mapstructure:"cookie_max_age" validate:"min=0"`
}

// RateLimitConfig holds the sliding-window rate limit configuration.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Window    time.Duration `mapstructure:"window" validate:"required_if=Enabled true"`
	MaxUpload int           `mapstructure:"max_upload" validate:"min=0"`
	MaxDelete int           `mapstructure:"max_delete" validate:"min=0"`
	MaxBrowse int           `mapstructure:"max_browse" validate:"min=0"`
}

// UploadConfig holds upload handling configuration.
type UploadConfig struct {
	// RestrictTypes rejects uploads outside the supported-type table.
	RestrictTypes bool `mapstructure:"restrict_types"`
	// MaxSize caps upload size in bytes. 0 means no limit.
	MaxSize int64 `mapstructure:"max_size" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	// Format selects the handler: human-readable "text" for development,
	// "json" for production log pipelines.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":          "server.port",
	"public-url":    "server.public_url",
	"store-backend": "store.backend",
	"store-path":    "store.path",
	"store-dsn":     "store.dsn",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5710)
	v.SetDefault("server.public_url", "")

	v.SetDefault("store.backend", "fs")
	v.SetDefault("store.path", "./data")
	v.SetDefault("store.dsn", "pannier.db")
	v.SetDefault("store.compress", false)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.mode", "cookie")
	v.SetDefault("auth.cookie_name", "pannier_auth")
	v.SetDefault("auth.cookie_max_age", 7*24*60*60) // seconds

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.max_upload", 10)
	v.SetDefault("ratelimit.max_delete", 20)
	v.SetDefault("ratelimit.max_browse", 60)

	v.SetDefault("upload.restrict_types", false)
	v.SetDefault("upload.max_size", 0) // 0 means no limit

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PANNIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
