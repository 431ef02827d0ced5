//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sessiongate/sessiongate"
	"github.com/sessiongate/sessiongate/limit"
	"github.com/sessiongate/sessiongate/session"
)

func newIntegrationStore(t *testing.T) (*session.RedisStore, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewRedisStore(rdb, "sg", time.Hour, 0)

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationEngine(t *testing.T, maximum int, strategy limit.Strategy) (*sessiongate.Engine, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := sessiongate.DefaultConfig()
	cfg.Limit.MaxSessions = maximum
	cfg.Limit.Strategy = strategy
	if strategy == limit.StrategySemiBlock {
		cfg.Override.Secret = []byte("integration-test-secret-0123456789ab")
	}

	engine, err := sessiongate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		_ = rdb.Close()
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
