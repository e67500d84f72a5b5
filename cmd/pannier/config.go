package main

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("server.port", 5710)
	viper.SetDefault("server.public_url", "")

	viper.SetDefault("store.backend", "fs")
	viper.SetDefault("store.path", "./data")
	viper.SetDefault("store.dsn", "pannier.db")
	viper.SetDefault("store.compress", false)

	viper.SetDefault("auth.enabled", true)
	viper.SetDefault("auth.mode", "cookie")
	viper.SetDefault("auth.cookie_name", "pannier_auth")
	viper.SetDefault("auth.cookie_max_age", 7*24*60*60)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.window", time.Minute)
	viper.SetDefault("ratelimit.max_upload", 10)
	viper.SetDefault("ratelimit.max_delete", 20)
	viper.SetDefault("ratelimit.max_browse", 60)

	viper.SetDefault("upload.restrict_types", false)
	viper.SetDefault("upload.max_size", 0)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func readConfig(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		slog.Warn("failed to bind flags", "err", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("PANNIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			slog.Warn("error reading config file", "err", err)
		}
	}
}
