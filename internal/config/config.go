package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	// Origin stands in for the page the client was loaded from; its scheme
	// and host decide the backend URL.
	Origin        string
	Port          string
	UIAddr        string
	DatabaseURL   string
	LogLevel      string
	NotifyTimeout time.Duration
	Theme         ThemeConfig
	Environment   EnvironmentConfig
}

type ThemeConfig struct {
	AutoSensor string
	AutoBelow  float64
}

type EnvironmentConfig struct {
	URL      string
	Token    string
	Entities string // static "id=state,..." pairs, used when URL is empty
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ORIGIN", "http://localhost")
	v.SetDefault("PORT", "8080")
	v.SetDefault("UI_ADDR", "127.0.0.1:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("NOTIFY_TIMEOUT", "2s")
	v.SetDefault("THEME_AUTO_SENSOR", "")
	v.SetDefault("THEME_AUTO_BELOW", 0)
	v.SetDefault("ENV_URL", "")
	v.SetDefault("ENV_TOKEN", "")
	v.SetDefault("ENV_ENTITIES", "")
}

// Load reads configuration from the environment, with an optional
// config.yaml in the working directory or $HOME/.quizclient underneath.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.quizclient")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	notify, err := time.ParseDuration(v.GetString("NOTIFY_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: %w", err)
	}

	return &Config{
		Origin:        v.GetString("ORIGIN"),
		Port:          v.GetString("PORT"),
		UIAddr:        v.GetString("UI_ADDR"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		NotifyTimeout: notify,
		Theme: ThemeConfig{
			AutoSensor: v.GetString("THEME_AUTO_SENSOR"),
			AutoBelow:  v.GetFloat64("THEME_AUTO_BELOW"),
		},
		Environment: EnvironmentConfig{
			URL:      v.GetString("ENV_URL"),
			Token:    v.GetString("ENV_TOKEN"),
			Entities: v.GetString("ENV_ENTITIES"),
		},
	}, nil
}
