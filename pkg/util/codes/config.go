package codes

import "github.com/Alijeyrad/carevisit_backend/config"

// Config holds settings for token generation
type Config struct {
	// TokenByteLength is the number of random bytes behind each token
	TokenByteLength int
}

func DefaultConfig() Config {
	return Config{TokenByteLength: FeedTokenByteLength}
}

// FromCentralConfig converts central config.CodesConfig to package Config
func FromCentralConfig(c config.CodesConfig) Config {
	if c.TokenByteLength < MinTokenByteLength {
		return DefaultConfig()
	}
	return Config{TokenByteLength: c.TokenByteLength}
}
