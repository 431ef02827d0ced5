package override

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalid is returned for a malformed, mis-signed, expired, or
	// wrong-principal override token.
	ErrInvalid = errors.New("invalid override token")
	// ErrReplayed is returned when a token's jti has already been burned.
	ErrReplayed = errors.New("override token already redeemed")
	// ErrUnavailable is returned when the redemption backend failed.
	ErrUnavailable = errors.New("override backend unavailable")
)

const defaultTTL = 5 * time.Minute

// Config holds override token tuning parameters.
type Config struct {
	// Secret signs tokens with HS256. Required.
	Secret []byte
	// TTL bounds token validity. Defaults to 5 minutes.
	TTL time.Duration
	// RedisPrefix namespaces burned-jti keys. Defaults to "sgov".
	RedisPrefix string
}

type claims struct {
	jwt.RegisteredClaims
}

// Manager issues and redeems single-use override tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	prefix string
	redis  redis.UniversalClient

	// In-process burn set, used when no Redis client is supplied.
	mu     sync.Mutex
	burned map[string]time.Time
}

// NewManager creates a [Manager]. client may be nil, in which case jti
// burning is tracked in process; sufficient for single-instance
// deployments and the in-memory store.
func NewManager(client redis.UniversalClient, cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("override secret required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "sgov"
	}

	m := &Manager{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		prefix: cfg.RedisPrefix,
		redis:  client,
	}
	if client == nil {
		m.burned = make(map[string]time.Time)
	}
	return m, nil
}

// TTL returns the configured token validity window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a fresh single-use override token bound to the principal.
func (m *Manager) Issue(_ context.Context, principal string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Redeem verifies a token against the principal and burns its jti. A second
// redemption of the same token returns [ErrReplayed].
func (m *Manager) Redeem(ctx context.Context, principal, tokenStr string) error {
	if tokenStr == "" {
		return ErrInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return ErrInvalid
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject != principal || c.ID == "" {
		return ErrInvalid
	}

	return m.burn(ctx, c.ID, time.Until(c.ExpiresAt.Time))
}

func (m *Manager) burn(ctx context.Context, jti string, remaining time.Duration) error {
	if remaining <= 0 {
		return ErrInvalid
	}

	if m.redis != nil {
		set, err := m.redis.SetNX(ctx, m.prefix+":"+jti, 1, remaining).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !set {
			return ErrReplayed
		}
		return nil
	}

	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, exp := range m.burned {
		if now.After(exp) {
			delete(m.burned, id)
		}
	}
	if _, exists := m.burned[jti]; exists {
		return ErrReplayed
	}
	m.burned[jti] = now.Add(remaining)
	return nil
}
