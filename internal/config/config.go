/**
 * @description
 * This file handles the configuration management for the Kinta backend.
 * It uses the Viper library to read settings from environment variables or a
 * .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	BillstackAPIBaseURL string `mapstructure:"BILLSTACK_API_BASE_URL"`
	BillstackSecretKey  string `mapstructure:"BILLSTACK_SECRET_KEY"`
	ProvisionBanks      string `mapstructure:"PROVISION_BANKS"`

	QStashURL   string `mapstructure:"QSTASH_URL"`
	QStashToken string `mapstructure:"QSTASH_TOKEN"`
	// Signing keys QStash uses to sign the Upstash-Signature header on
	// scheduled calls. The next key covers QStash's key rotation window.
	QStashCurrentSigningKey string `mapstructure:"QSTASH_CURRENT_SIGNING_KEY"`
	QStashNextSigningKey    string `mapstructure:"QSTASH_NEXT_SIGNING_KEY"`
	CronDestinationURL      string `mapstructure:"CRON_DESTINATION_URL"`
	CronSchedule            string `mapstructure:"CRON_SCHEDULE"`
	// EnableLocalScheduler runs the batch job on an in-process cron instead of
	// relying on QStash. Meant for deployments without the external scheduler.
	EnableLocalScheduler bool `mapstructure:"ENABLE_LOCAL_SCHEDULER"`

	// Signature is the shared secret expected on operator-triggered endpoints
	// (cron management, on-demand provisioning).
	Signature      string `mapstructure:"SIGNATURE"`
	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET"`

	RefundCodes    string `mapstructure:"REFUND_CODES"`
	SuccessCodes   string `mapstructure:"SUCCESS_CODES"`
	MaxUsersPerRun int    `mapstructure:"MAX_USERS_PER_RUN"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom    string `mapstructure:"EMAIL_FROM"`

	ProvisionRateLimit       int `mapstructure:"PROVISION_RATE_LIMIT"`
	ProvisionRateLimitWindow int `mapstructure:"PROVISION_RATE_LIMIT_WINDOW_SECONDS"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("BILLSTACK_API_BASE_URL", "https://api.billstack.co")
	viper.SetDefault("PROVISION_BANKS", "PALMPAY,9PSB,BANKLY,PROVIDUS,SAFEHAVEN")
	viper.SetDefault("QSTASH_URL", "https://qstash.upstash.io")
	viper.SetDefault("CRON_SCHEDULE", "0 */3 * * *") // every 3 hours, at minute 0
	viper.SetDefault("REFUND_CODES", "040,016")
	viper.SetDefault("SUCCESS_CODES", "000")
	viper.SetDefault("MAX_USERS_PER_RUN", 50)
	viper.SetDefault("SMTP_HOST", "smtp-relay.brevo.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM", "kinta@data.com")
	viper.SetDefault("PROVISION_RATE_LIMIT", 5)
	viper.SetDefault("PROVISION_RATE_LIMIT_WINDOW_SECONDS", 60)

	// Bind envs explicitly so containers pick them up reliably
	for _, key := range []string{
		"APP_ENV", "SERVER_PORT", "DATABASE_URL", "RABBITMQ_URL", "REDIS_URL",
		"BILLSTACK_API_BASE_URL", "BILLSTACK_SECRET_KEY", "PROVISION_BANKS",
		"QSTASH_URL", "QSTASH_TOKEN", "QSTASH_CURRENT_SIGNING_KEY",
		"QSTASH_NEXT_SIGNING_KEY", "CRON_DESTINATION_URL", "CRON_SCHEDULE",
		"ENABLE_LOCAL_SCHEDULER", "SIGNATURE", "ADMIN_JWT_SECRET",
		"REFUND_CODES", "SUCCESS_CODES", "MAX_USERS_PER_RUN",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "EMAIL_FROM",
		"PROVISION_RATE_LIMIT", "PROVISION_RATE_LIMIT_WINDOW_SECONDS",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// ProvisionBankList returns the ordered partner list the provisioner walks.
func (c *Config) ProvisionBankList() []string {
	return splitCSV(c.ProvisionBanks)
}

// RefundCodeList returns the provider codes that trigger a refund.
func (c *Config) RefundCodeList() []string {
	return splitCSV(c.RefundCodes)
}

// SuccessCodeList returns the provider codes that mark a transaction successful.
func (c *Config) SuccessCodeList() []string {
	return splitCSV(c.SuccessCodes)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
