package config

import (
	"fmt"
	"slices"
)

// BotConfig represents the Telegram bot configuration
type BotConfig struct {
	Server   BotServerConfig   `json:"server" yaml:"server"`
	Telegram TelegramBotConfig `json:"telegram" yaml:"telegram"`
	Focus    FocusAPIConfig    `json:"focus" yaml:"focus"`
	Logging  LoggingConfig     `json:"logging" yaml:"logging"`
}

// BotServerConfig contains HTTP server settings for the bot webhook
type BotServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// TelegramBotConfig contains Telegram bot settings
type TelegramBotConfig struct {
	Token         string  `json:"token" yaml:"token"`
	AllowedUsers  []int64 `json:"allowed_users" yaml:"allowed_users"`
	WebhookURL    string  `json:"webhook_url" yaml:"webhook_url"`
	WebhookSecret string  `json:"webhook_secret" yaml:"webhook_secret"`
}

// FocusAPIConfig contains focusd connection settings
type FocusAPIConfig struct {
	BaseURL string   `json:"base_url" yaml:"base_url"`
	APIKey  string   `json:"api_key" yaml:"api_key"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// LoadBotConfig loads bot configuration from a JSON or YAML file
func LoadBotConfig(path string) (*BotConfig, error) {
	var cfg BotConfig
	if err := readFile(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *BotConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram.token is required", ErrInvalidConfig)
	}

	if len(c.Telegram.AllowedUsers) == 0 {
		return fmt.Errorf("%w: telegram.allowed_users cannot be empty", ErrInvalidConfig)
	}

	if c.Telegram.WebhookURL == "" {
		return fmt.Errorf("%w: telegram.webhook_url is required", ErrInvalidConfig)
	}

	if c.Focus.BaseURL == "" {
		return fmt.Errorf("%w: focus.base_url is required", ErrInvalidConfig)
	}

	if c.Focus.APIKey == "" {
		return fmt.Errorf("%w: focus.api_key is required", ErrInvalidConfig)
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// IsUserAllowed checks if a user ID is in the whitelist
func (c *BotConfig) IsUserAllowed(userID int64) bool {
	return slices.Contains(c.Telegram.AllowedUsers, userID)
}
