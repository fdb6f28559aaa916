package email

import (
	"time"

	"github.com/Alijeyrad/carevisit_backend/config"
)

// Config holds email service configuration
type Config struct {
	Enabled bool
	From    string

	// SMTP settings
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int

	// Circuit breaker
	BreakerFailures        uint32
	BreakerCooldownSeconds int

	// Template settings
	AppName string
	BaseURL string
}

// DefaultConfig returns sensible defaults for email configuration
func DefaultConfig() Config {
	return Config{
		Enabled:                false,
		SMTPPort:               587,
		SMTPUseTLS:             true,
		SMTPTimeoutSeconds:     30,
		BreakerFailures:        5,
		BreakerCooldownSeconds: 60,
		AppName:                "CareVisit",
	}
}

// SMTPTimeout returns the SMTP timeout as a duration
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

func (c Config) BreakerCooldown() time.Duration {
	if c.BreakerCooldownSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

// FromCentralConfig converts central config.EmailConfig to package Config
func FromCentralConfig(c config.EmailConfig) Config {
	d := DefaultConfig()
	out := Config{
		Enabled:                c.Enabled,
		From:                   c.From,
		SMTPHost:               c.SMTP.Host,
		SMTPPort:               c.SMTP.Port,
		SMTPUsername:           c.SMTP.Username,
		SMTPPassword:           c.SMTP.Password,
		SMTPUseTLS:             c.SMTP.UseTLS,
		SMTPTimeoutSeconds:     c.SMTP.TimeoutSeconds,
		BreakerFailures:        d.BreakerFailures,
		BreakerCooldownSeconds: d.BreakerCooldownSeconds,
		AppName:                c.AppName,
		BaseURL:                c.BaseURL,
	}
	if out.AppName == "" {
		out.AppName = d.AppName
	}
	return out
}
