package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// RedisEnv names the address of a disposable Redis used by integration tests.
const RedisEnv = "CAREVISIT_TEST_REDIS_ADDR"

// Redis returns a client on database 15 of the Redis at $CAREVISIT_TEST_REDIS_ADDR,
// flushed before use. The test is skipped when the variable is unset.
func Redis(t testing.TB) *redis.Client {
	t.Helper()
	addr := os.Getenv(RedisEnv)
	if addr == "" {
		t.Skipf("%s not set", RedisEnv)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
