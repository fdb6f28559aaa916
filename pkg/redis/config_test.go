package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/carevisit_backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 40})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 40, cfg.PoolSize)
	assert.Equal(t, DefaultConfig().MinIdleConns, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout())
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout())
}

func TestTimeoutFallbacks(t *testing.T) {
	var cfg Config
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout())
	cfg.WriteTimeoutSeconds = 9
	assert.Equal(t, 9*time.Second, cfg.WriteTimeout())
}
