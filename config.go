package sessiongate

import (
	"fmt"
	"time"

	"github.com/sessiongate/sessiongate/limit"
)

// Config defines engine behavior. Configure before Build; the engine
// treats it as immutable afterwards.
type Config struct {
	Limit    LimitConfig
	Session  SessionConfig
	Override OverrideConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
LIMIT CONFIG
====================================
*/

// LimitConfig sets the per-principal concurrency policy.
type LimitConfig struct {
	// MaxSessions is the per-principal cap. Must be at least 1.
	MaxSessions int
	// Strategy decides what happens when the cap is reached.
	Strategy limit.Strategy
	// RejectionMessage is the user-facing text carried by RejectionError.
	// Empty selects a default.
	RejectionMessage string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the session store.
type SessionConfig struct {
	// RedisPrefix namespaces all keys written by the Redis store.
	RedisPrefix string
	// AbsoluteLifetime bounds how long a session may live regardless of
	// activity. Zero means sessions never expire on their own.
	AbsoluteLifetime time.Duration
	// IdleTimeout expires sessions with no Touch within the window.
	// Zero disables idle expiry. Redis store only.
	IdleTimeout time.Duration
	// SweepInterval controls the in-memory store's expiry janitor.
	// Zero disables the background sweep.
	SweepInterval time.Duration
}

/*
====================================
OVERRIDE CONFIG
====================================
*/

// OverrideConfig tunes SemiBlock one-time override tokens. Ignored unless
// the strategy is SemiBlock.
type OverrideConfig struct {
	// Secret signs override tokens. Required when Strategy is SemiBlock.
	Secret []byte
	// TokenTTL bounds how long an issued token stays redeemable.
	TokenTTL time.Duration
	// RedisPrefix namespaces redemption-tracking keys.
	RedisPrefix string
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process metric counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultRedisPrefix         = "sg"
	defaultOverridePrefix      = "sgov"
	defaultRejectionMessage    = "maximum number of active sessions reached"
	defaultAuditBufferSize     = 256
	defaultMemorySweepInterval = time.Minute
)

// DefaultConfig returns the configuration Build starts from: one session
// per principal with the evict-oldest strategy and an in-memory store.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Limit: LimitConfig{
			MaxSessions: 1,
			Strategy:    limit.StrategyEvictOldest,
		},
		Session: SessionConfig{
			RedisPrefix:   defaultRedisPrefix,
			SweepInterval: defaultMemorySweepInterval,
		},
		Override: OverrideConfig{
			RedisPrefix: defaultOverridePrefix,
		},
		Audit: AuditConfig{
			BufferSize: defaultAuditBufferSize,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Override.Secret = cloneBytes(cfg.Override.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine refuses to run with. Build
// calls it; callers normally never need to.
func (c Config) Validate() error {
	if c.Limit.MaxSessions < 1 {
		return fmt.Errorf("%w: Limit.MaxSessions must be at least 1", ErrInvalidConfiguration)
	}
	if !c.Limit.Strategy.Valid() {
		return fmt.Errorf("%w: unknown limit strategy %d", ErrInvalidConfiguration, c.Limit.Strategy)
	}
	if c.Session.AbsoluteLifetime < 0 {
		return fmt.Errorf("%w: Session.AbsoluteLifetime must not be negative", ErrInvalidConfiguration)
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("%w: Session.IdleTimeout must not be negative", ErrInvalidConfiguration)
	}
	if c.Limit.Strategy == limit.StrategySemiBlock && len(c.Override.Secret) == 0 {
		return fmt.Errorf("%w: Override.Secret required for the SemiBlock strategy", ErrInvalidConfiguration)
	}
	if c.Override.TokenTTL < 0 {
		return fmt.Errorf("%w: Override.TokenTTL must not be negative", ErrInvalidConfiguration)
	}
	return nil
}
