package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL       string  `mapstructure:"POSTGRES_URL"`
	RedisAddr         string  `mapstructure:"REDIS_ADDR"`
	ServerPort        string  `mapstructure:"SERVER_PORT"`
	TargetProfilePath string  `mapstructure:"TARGET_PROFILE"`
	ScreenshotDir     string  `mapstructure:"SCREENSHOT_DIR"`
	FetchTimeout      int     `mapstructure:"FETCH_TIMEOUT"`
	CaptureTimeout    int     `mapstructure:"CAPTURE_TIMEOUT"`
	ScanDelayMs       int     `mapstructure:"SCAN_DELAY_MS"`
	RecheckTTLHours   int     `mapstructure:"RECHECK_TTL_HOURS"`
	ActiveThreshold   float64 `mapstructure:"ACTIVE_THRESHOLD"`
	PersistThreshold  float64 `mapstructure:"PERSIST_THRESHOLD"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SCREENSHOT_DIR", "./screenshots")
	viper.SetDefault("FETCH_TIMEOUT", 10) // in seconds
	viper.SetDefault("CAPTURE_TIMEOUT", 30)
	viper.SetDefault("SCAN_DELAY_MS", 1000)
	viper.SetDefault("RECHECK_TTL_HOURS", 24)
	viper.SetDefault("ACTIVE_THRESHOLD", 65.0)
	viper.SetDefault("PERSIST_THRESHOLD", 50.0)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
