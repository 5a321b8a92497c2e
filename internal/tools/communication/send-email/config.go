package sendemail

import (
	"fmt"
	"time"

	"voice-agent-workers/internal/common/config"
)

const (
	ProviderLog      = "log"
	ProviderSES      = "ses"
	ProviderSendGrid = "sendgrid"
)

type Config struct {
	Provider        string
	FromEmail       string
	FromName        string
	DefaultPriority string
	Timeout         time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderLog,
		FromEmail:       "noreply@example.com",
		FromName:        "Voice Agent",
		DefaultPriority: "normal",
		Timeout:         15 * time.Second,
	}
}

func LoadConfig(cfg config.ToolsConfig) *Config {
	c := DefaultConfig()
	if cfg.Email.Provider != "" {
		c.Provider = cfg.Email.Provider
	}
	if cfg.Email.FromEmail != "" {
		c.FromEmail = cfg.Email.FromEmail
	}
	if cfg.Email.FromName != "" {
		c.FromName = cfg.Email.FromName
	}
	return c
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLog, ProviderSES, ProviderSendGrid:
	default:
		return fmt.Errorf("unknown email provider %q", c.Provider)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from_email is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
