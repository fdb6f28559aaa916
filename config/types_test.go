package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Authentication: AuthenticationConfig{
			Paseto:        PasetoConfig{Mode: "local", LocalKeyHex: strings.Repeat("ab", 32)},
			EncryptionKey: strings.Repeat("01", 32),
		},
		Password:   PasswordConfig{MinLength: 6},
		Scheduling: SchedulingConfig{Timezone: "Asia/Tokyo", MaxOccurrences: 366},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("short password minimum", func(t *testing.T) {
		c := validConfig()
		c.Password.MinLength = 4
		assert.ErrorContains(t, c.Validate(), "min_length")
	})

	t.Run("bad encryption key", func(t *testing.T) {
		c := validConfig()
		c.Authentication.EncryptionKey = "abcd"
		assert.ErrorContains(t, c.Validate(), "encryption_key")
	})

	t.Run("unknown paseto mode", func(t *testing.T) {
		c := validConfig()
		c.Authentication.Paseto.Mode = "jwt"
		assert.ErrorContains(t, c.Validate(), "paseto.mode")
	})

	t.Run("bad timezone", func(t *testing.T) {
		c := validConfig()
		c.Scheduling.Timezone = "Mars/Olympus"
		assert.ErrorContains(t, c.Validate(), "scheduling.timezone")
	})
}

func TestSchedulingLocation(t *testing.T) {
	assert.Equal(t, "Asia/Tokyo", SchedulingConfig{Timezone: "Asia/Tokyo"}.Location().String())
	assert.Equal(t, "UTC", SchedulingConfig{}.Location().String())
}
