package sessiongate

import (
	"errors"
	"testing"
	"time"

	"github.com/sessiongate/sessiongate/limit"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max sessions", func(c *Config) { c.Limit.MaxSessions = 0 }},
		{"negative max sessions", func(c *Config) { c.Limit.MaxSessions = -3 }},
		{"unknown strategy", func(c *Config) { c.Limit.Strategy = limit.Strategy(42) }},
		{"negative lifetime", func(c *Config) { c.Session.AbsoluteLifetime = -time.Hour }},
		{"negative idle timeout", func(c *Config) { c.Session.IdleTimeout = -time.Minute }},
		{"semiblock without secret", func(c *Config) { c.Limit.Strategy = limit.StrategySemiBlock }},
		{"negative override ttl", func(c *Config) {
			c.Limit.Strategy = limit.StrategySemiBlock
			c.Override.Secret = []byte("secret")
			c.Override.TokenTTL = -time.Second
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Limit.MaxSessions = 0

	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration from Build, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error from reused builder")
	}
}

func TestCloneConfigDetachesSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Override.Secret = []byte("topsecret")

	clone := cloneConfig(cfg)
	clone.Override.Secret[0] = 'X'

	if cfg.Override.Secret[0] == 'X' {
		t.Fatal("clone must not alias the secret slice")
	}
}
