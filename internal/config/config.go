/**
 * @description
 * This file handles configuration management for the fund-release engine.
 * It loads settings from environment variables, providing defaults for cron
 * schedules and the HTTP port.
 */
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the fund-release engine.
type Config struct {
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	StripeAPIKey        string `mapstructure:"STRIPE_API_KEY"`
	StripeAPIBaseURL    string `mapstructure:"STRIPE_API_BASE_URL"`
	InternalAPIKey      string `mapstructure:"INTERNAL_API_KEY"`
	ServerPort          string `mapstructure:"SERVER_PORT"`
	TransferJobSchedule string `mapstructure:"TRANSFER_JOB_SCHEDULE"`
	PayoutJobSchedule   string `mapstructure:"PAYOUT_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("STRIPE_API_BASE_URL", "https://api.stripe.com")
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("TRANSFER_JOB_SCHEDULE", "0 */2 * * *") // Every 2 hours.
	viper.SetDefault("PAYOUT_JOB_SCHEDULE", "0 6 * * *")     // Daily at 06:00 UTC.
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("STRIPE_API_KEY")
	_ = viper.BindEnv("STRIPE_API_BASE_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("TRANSFER_JOB_SCHEDULE")
	_ = viper.BindEnv("PAYOUT_JOB_SCHEDULE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if strings.TrimSpace(config.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	if strings.TrimSpace(config.StripeAPIKey) == "" {
		return nil, fmt.Errorf("STRIPE_API_KEY must be set")
	}

	return &config, nil
}
