// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package config loads cmd/sqa-demo's configuration from an optional .env
// file and the environment, following the same viper + validator shape
// used elsewhere in this codebase's ancestry for service configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppConfig is the demo program's configuration. The core engine package
// takes no dependency on this type - only cmd/sqa-demo does.
type AppConfig struct {
	ClientName string `mapstructure:"client_name" validate:"required"`
	LogLevel   string `mapstructure:"log_level" validate:"required"`
	MaxPlayers int    `mapstructure:"max_players" validate:"required,oneof=256 512"`
	MaxChans   int    `mapstructure:"max_chans" validate:"required,oneof=64 128"`
	ToneHz     float64 `mapstructure:"tone_hz" validate:"required,gt=0"`
}

// Load reads configuration from ENV_PATH (if set), a local .env file, and
// the environment, applying defaults for anything left unset.
func Load() (*AppConfig, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if path := os.Getenv("ENV_PATH"); path != "" {
		v.SetConfigFile(path)
	}

	setDefaults(v)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		// A malformed .env file is a real problem; a missing one is fine,
		// defaults + environment variables carry the configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CLIENT_NAME", "SQA Engine")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_PLAYERS", 256)
	v.SetDefault("MAX_CHANS", 64)
	v.SetDefault("TONE_HZ", 440.0)
}
