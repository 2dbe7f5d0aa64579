package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

const (
	sessionKeyPrefix = "session:"
	pointerKeyPrefix = "user-session:"
	handoffKeyPrefix = "login-handoff:"
)

// Session hash field names.
const (
	fieldUserID      = "user_id"
	fieldRole        = "role"
	fieldRefreshHash = "refresh_hash"
	fieldLastSeen    = "last_seen"
	fieldCreatedAt   = "created_at"
)

// touchSessionScript updates last_seen and re-applies the TTL only when the
// session hash still exists, so a touch can never resurrect an expired key.
var touchSessionScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], "last_seen", ARGV[1])
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return 1
end
return 0
`)

// setRefreshHashScript overwrites the refresh-hash field only when the session
// hash still exists; a bare HSET would recreate the key without a TTL.
var setRefreshHashScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], "refresh_hash", ARGV[1])
  return 1
end
return 0
`)

// RedisStore implements Store on a shared Redis instance. Sessions are hashes,
// pointers are plain strings; the store's per-key TTL provides idle expiry
// with no sweeper process.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies connectivity. Called at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sessionKey(id domain.SessionID) string { return sessionKeyPrefix + id.String() }
func pointerKey(userID string) string       { return pointerKeyPrefix + userID }
func handoffKey(token string) string        { return handoffKeyPrefix + token }

// GetSession returns the session record, or (nil, nil) when the key is absent.
func (s *RedisStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	m, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get session: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	lastSeen, err := time.Parse(time.RFC3339Nano, m[fieldLastSeen])
	if err != nil {
		return nil, fmt.Errorf("redis: session %s: bad last_seen: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("redis: session %s: bad created_at: %w", id, err)
	}
	return &domain.Session{
		ID:                id,
		UserID:            m[fieldUserID],
		Role:              userdomain.Role(m[fieldRole]),
		RefreshSecretHash: m[fieldRefreshHash],
		LastSeenAt:        lastSeen,
		CreatedAt:         createdAt,
	}, nil
}

// PutSession writes all session fields in one multi-field hash write and
// applies ttl.
func (s *RedisStore) PutSession(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	key := sessionKey(sess.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldUserID:      sess.UserID,
		fieldRole:        string(sess.Role),
		fieldRefreshHash: sess.RefreshSecretHash,
		fieldLastSeen:    sess.LastSeenAt.UTC().Format(time.RFC3339Nano),
		fieldCreatedAt:   sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put session: %w", err)
	}
	return nil
}

// DeleteSession removes the session key. Idempotent.
func (s *RedisStore) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}

// SetRefreshSecretHash overwrites the refresh-hash field if the session still
// exists. Returns false when the session is gone.
func (s *RedisStore) SetRefreshSecretHash(ctx context.Context, id domain.SessionID, hash string) (bool, error) {
	n, err := setRefreshHashScript.Run(ctx, s.client, []string{sessionKey(id)}, hash).Int()
	if err != nil {
		return false, fmt.Errorf("redis: set refresh hash: %w", err)
	}
	return n == 1, nil
}

// TouchSession updates last_seen and re-applies ttl if the session still
// exists. Returns false when the session is gone.
func (s *RedisStore) TouchSession(ctx context.Context, id domain.SessionID, lastSeen time.Time, ttl time.Duration) (bool, error) {
	n, err := touchSessionScript.Run(ctx, s.client, []string{sessionKey(id)},
		lastSeen.UTC().Format(time.RFC3339Nano), ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis: touch session: %w", err)
	}
	return n == 1, nil
}

// GetPointer returns the user's current session ID, or "" when absent.
func (s *RedisStore) GetPointer(ctx context.Context, userID string) (domain.SessionID, error) {
	v, err := s.client.Get(ctx, pointerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: get pointer: %w", err)
	}
	return domain.SessionID(v), nil
}

// SetPointer maps the user to a session ID with ttl.
func (s *RedisStore) SetPointer(ctx context.Context, userID string, id domain.SessionID, ttl time.Duration) error {
	if err := s.client.Set(ctx, pointerKey(userID), id.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis: set pointer: %w", err)
	}
	return nil
}

// DeletePointer removes the user's pointer. Idempotent.
func (s *RedisStore) DeletePointer(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, pointerKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis: delete pointer: %w", err)
	}
	return nil
}

// TouchPointer re-applies ttl to the pointer. Returns false when absent.
func (s *RedisStore) TouchPointer(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, pointerKey(userID), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: touch pointer: %w", err)
	}
	return ok, nil
}

// PutHandoff stores the JSON-encoded hand-off payload under token with ttl.
func (s *RedisStore) PutHandoff(ctx context.Context, token string, h *Handoff, ttl time.Duration) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, handoffKey(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put handoff: %w", err)
	}
	return nil
}

// TakeHandoff consumes the hand-off via GETDEL, so a token can be redeemed at
// most once even under concurrent presentation. Returns (nil, nil) when absent.
func (s *RedisStore) TakeHandoff(ctx context.Context, token string) (*Handoff, error) {
	raw, err := s.client.GetDel(ctx, handoffKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: take handoff: %w", err)
	}
	var h Handoff
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("redis: handoff payload: %w", err)
	}
	return &h, nil
}
