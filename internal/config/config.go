// Package config loads application configuration from a config file and
// environment variables.
package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the gateway.
type Config struct {
	// SeafileServer is the base URL of the backing seafile instance,
	// e.g. "https://seafile.example.com".
	SeafileServer string `mapstructure:"seafile_server"`
	Port          string `mapstructure:"port"`
	// PublicScheme is the scheme used when composing share URLs returned
	// to uploading clients ("http" or "https").
	PublicScheme string `mapstructure:"public_scheme"`
	AppEnv       string `mapstructure:"app_env"`
	Debug        bool   `mapstructure:"debug"`
}

// Load reads configuration from a .env file (if present), an optional config
// file, and environment variables. configPath overrides the config file
// location when non-empty (the service accepts it as its sole CLI argument).
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()

	viper.SetDefault("seafile_server", "http://localhost:8000")
	viper.SetDefault("port", "8080")
	viper.SetDefault("public_scheme", "https")
	viper.SetDefault("app_env", "development")
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("read config file %q: %w", configPath, err)
		}
		log.Printf("no config file found, using defaults: %v", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
