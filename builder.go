package sessiongate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/sessiongate/sessiongate/internal/flows"
	"github.com/sessiongate/sessiongate/internal/keymutex"
	"github.com/sessiongate/sessiongate/limit"
	"github.com/sessiongate/sessiongate/override"
	"github.com/sessiongate/sessiongate/session"
)

// Builder assembles an Engine. Configure it once, call Build, discard it.
type Builder struct {
	config Config
	redis  *redis.Client
	store  session.Store

	bypass    []BypassFunc
	reached   []ReachedFunc
	auditSink AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the engine with Redis for session storage and override
// redemption tracking.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom session store. Takes precedence over
// WithRedis for session storage.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithBypass registers a bypass predicate. Predicates are OR-combined in
// registration order.
func (b *Builder) WithBypass(fn BypassFunc) *Builder {
	if fn != nil {
		b.bypass = append(b.bypass, fn)
	}
	return b
}

// WithReachedTransformer registers a limit-reached transformer.
// Transformers are chained in registration order.
func (b *Builder) WithReachedTransformer(fn ReachedFunc) *Builder {
	if fn != nil {
		b.reached = append(b.reached, fn)
	}
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. The builder must
// not be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		locks:   keymutex.New(),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- SESSION STORE --------
	switch {
	case b.store != nil:
		engine.store = b.store
	case b.redis != nil:
		engine.store = session.NewRedisStore(
			b.redis,
			cfg.Session.RedisPrefix,
			cfg.Session.AbsoluteLifetime,
			cfg.Session.IdleTimeout,
		)
	default:
		mem := session.NewMemoryStore(cfg.Session.AbsoluteLifetime, cfg.Session.SweepInterval)
		engine.store = mem
		engine.ownedStore = mem
	}

	// -------- OVERRIDE MANAGER --------
	if cfg.Limit.Strategy == limit.StrategySemiBlock {
		var client redis.UniversalClient
		if b.redis != nil {
			client = b.redis
		}
		manager, err := override.NewManager(client, override.Config{
			Secret:      cfg.Override.Secret,
			TTL:         cfg.Override.TokenTTL,
			RedisPrefix: cfg.Override.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		engine.overrides = manager
	}

	engine.flows = flows.New(engine.flowDeps(combineBypass(b.bypass), chainReached(b.reached)))

	b.built = true

	return engine, nil
}
