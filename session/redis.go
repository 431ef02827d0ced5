package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokeSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
  local count = tonumber(redis.call("GET", KEYS[3]) or "0")
  if count > 1 then
    redis.call("DECR", KEYS[3])
  elseif count == 1 then
    redis.call("DEL", KEYS[3])
  end
end
return existed
`

var revokeSessionLua = redis.NewScript(revokeSessionScript)

// pruneIndexScript reclaims an index entry whose session key already died
// by Redis TTL. Only the caller that wins the SREM decrements the counter,
// and a key that reappeared concurrently is left alone.
const pruneIndexScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
local removed = redis.call("SREM", KEYS[2], ARGV[1])
if removed == 1 then
  local count = tonumber(redis.call("GET", KEYS[3]) or "0")
  if count > 1 then
    redis.call("DECR", KEYS[3])
  elseif count == 1 then
    redis.call("DEL", KEYS[3])
  end
end
return removed
`

var pruneIndexLua = redis.NewScript(pruneIndexScript)

// RedisStore is a Redis-backed [Store]. Each session is a binary blob under
// its own key, a per-principal set indexes session IDs, and a store-wide
// counter tracks the live session total. The counter is maintained by a Lua
// script so concurrent revokes can never drive it negative.
type RedisStore struct {
	redis       redis.UniversalClient
	prefix      string
	ttl         time.Duration
	idleTimeout time.Duration
}

// NewRedisStore creates a [RedisStore] with the given key namespace.
//
// ttl is the absolute session lifetime (zero means sessions never expire).
// idleTimeout, when positive, bounds the Redis key TTL to an idle window
// that [RedisStore.Touch] renews, never extending past the absolute expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl, idleTimeout time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{
		redis:       client,
		prefix:      prefix,
		ttl:         ttl,
		idleTimeout: idleTimeout,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *RedisStore) principalKey(principal string) string {
	return s.prefix + ":p:" + principal
}

func (s *RedisStore) countKey() string {
	return s.prefix + ":count"
}

// Create allocates a new session for the principal and persists it.
//
//	Performance: 3 Redis commands in one MULTI (SET + SADD + INCR).
func (s *RedisStore) Create(ctx context.Context, principal string) (*Session, error) {
	now := time.Now()

	sess := &Session{
		SessionID:      uuid.NewString(),
		Principal:      principal,
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl).Unix()
	}

	data, err := Encode(sess)
	if err != nil {
		return nil, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.SessionID), data, s.keyTTL(sess, now))
		pipe.SAdd(ctx, s.principalKey(principal), sess.SessionID)
		pipe.Incr(ctx, s.countKey())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return sess, nil
}

// Get fetches one session by ID. An expired record is deleted on read and
// reported as [ErrNotFound].
//
//	Performance: 1 Redis GET on the happy path.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if sess.Expired(time.Now().Unix()) {
		if err := s.revokeOne(ctx, sess.Principal, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return sess, nil
}

// List returns the principal's current, non-expired sessions. Index entries
// whose session key has already expired by Redis TTL are pruned from the
// set, and the global counter is reconciled, as they are observed.
func (s *RedisStore) List(ctx context.Context, principal string) ([]*Session, error) {
	sessionIDs, err := s.redis.SMembers(ctx, s.principalKey(principal)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Get(ctx, s.key(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sessions := make([]*Session, 0, len(sessionIDs))
	nowUnix := time.Now().Unix()
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				// The key died by Redis TTL without going through a
				// revoke path. Reclaim the index entry and counter
				// slot; best effort, the next List retries on failure.
				_ = s.pruneIndexEntry(ctx, principal, sessionIDs[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		sess.SessionID = sessionIDs[i]
		if sess.Expired(nowUnix) {
			continue
		}

		sessions = append(sessions, sess)
	}

	return sessions, nil
}

// Count returns the number of current, non-expired sessions for the
// principal, computed from the same snapshot List observes.
func (s *RedisStore) Count(ctx context.Context, principal string) (int, error) {
	sessions, err := s.List(ctx, principal)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// Touch advances LastActivityAt and renews the idle window.
//
//	Performance: 1 GET + 1 SET.
func (s *RedisStore) Touch(ctx context.Context, sessionID string, now time.Time) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}
	sess.SessionID = sessionID

	if sess.Expired(now.Unix()) {
		if err := s.revokeOne(ctx, sess.Principal, sessionID); err != nil {
			return err
		}
		return ErrNotFound
	}

	// LastActivityAt never moves backwards, even with skewed callers.
	if now.Unix() > sess.LastActivityAt {
		sess.LastActivityAt = now.Unix()
	}

	updated, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := s.keyTTL(sess, now)
	if ttl == 0 && sess.ExpiresAt == 0 && s.idleTimeout <= 0 {
		ttl = redis.KeepTTL
	}
	if err := s.redis.Set(ctx, key, updated, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Revoke removes one session. Idempotent: an absent ID reports false, nil.
//
//	Performance: 1 GET + 1 Lua EVALSHA.
func (s *RedisStore) Revoke(ctx context.Context, sessionID string) (bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return false, err
	}

	existed, err := s.revokeOneResult(ctx, sess.Principal, sessionID)
	if err != nil {
		return false, err
	}
	return existed, nil
}

// RevokeAll removes every session for the principal and returns the number
// removed. Counts only sessions that still existed at deletion time, so
// concurrent revokes never double-decrement the counter.
func (s *RedisStore) RevokeAll(ctx context.Context, principal string) (int, error) {
	return s.revokeMatching(ctx, principal, "")
}

// RevokeAllExcept removes every session for the principal except the given
// one and returns the number removed.
func (s *RedisStore) RevokeAllExcept(ctx context.Context, principal, keepSessionID string) (int, error) {
	return s.revokeMatching(ctx, principal, keepSessionID)
}

func (s *RedisStore) revokeMatching(ctx context.Context, principal, keepSessionID string) (int, error) {
	principalKey := s.principalKey(principal)

	sessionIDs, err := s.redis.SMembers(ctx, principalKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	removed := 0
	for _, sid := range sessionIDs {
		if keepSessionID != "" && sid == keepSessionID {
			continue
		}
		existed, err := s.revokeOneResult(ctx, principal, sid)
		if err != nil {
			return removed, err
		}
		if existed {
			removed++
		}
	}

	return removed, nil
}

// TotalCount returns the store-wide live session counter. Sessions that
// die by Redis TTL are subtracted lazily, when a List or Count next
// observes the dead index entry, so the value may briefly overcount.
func (s *RedisStore) TotalCount(ctx context.Context) (int, error) {
	count, err := s.redis.Get(ctx, s.countKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *RedisStore) keyTTL(sess *Session, now time.Time) time.Duration {
	var remaining time.Duration
	if sess.ExpiresAt > 0 {
		remaining = time.Unix(sess.ExpiresAt, 0).Sub(now)
		if remaining < time.Second {
			remaining = time.Second
		}
	}

	if s.idleTimeout > 0 && (remaining == 0 || s.idleTimeout < remaining) {
		return s.idleTimeout
	}

	return remaining
}

func (s *RedisStore) pruneIndexEntry(ctx context.Context, principal, sessionID string) error {
	keys := []string{s.key(sessionID), s.principalKey(principal), s.countKey()}
	if err := pruneIndexLua.Run(ctx, s.redis, keys, sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) revokeOne(ctx context.Context, principal, sessionID string) error {
	_, err := s.revokeOneResult(ctx, principal, sessionID)
	return err
}

func (s *RedisStore) revokeOneResult(ctx context.Context, principal, sessionID string) (bool, error) {
	keys := []string{s.key(sessionID), s.principalKey(principal), s.countKey()}
	existed, err := revokeSessionLua.Run(ctx, s.redis, keys, sessionID).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return existed == 1, nil
}
