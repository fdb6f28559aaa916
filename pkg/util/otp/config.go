package otp

import "github.com/Alijeyrad/carevisit_backend/config"

// Config holds OTP generation settings
type Config struct {
	// Length of generated codes; clamped to [MinLength, MaxLength]
	Length int
}

func DefaultConfig() Config {
	return Config{Length: DefaultLength}
}

// Validate checks if the config values are valid
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return ErrInvalidLength
	}
	return nil
}

// FromCentralConfig converts central config.OTPConfig to package Config
func FromCentralConfig(c config.OTPConfig) Config {
	if c.DefaultLength == 0 {
		return DefaultConfig()
	}
	return Config{Length: c.DefaultLength}
}
