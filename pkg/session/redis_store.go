package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix = "sess:token:"
	redisAccountPrefix = "sess:acct:"
)

// RedisStore implements Store on a shared Redis instance so a login on one
// process is visible to the next request on any sibling process. Expiry
// rides on native key TTLs; DeleteExpired only prunes stale account-index
// members.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(token string) string {
	return redisSessionPrefix + token
}

func accountKey(accountID int64) string {
	return fmt.Sprintf("%s%d", redisAccountPrefix, accountID)
}

func (s *RedisStore) write(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), raw, time.Until(session.ExpiresAt))
	if session.AccountID != nil {
		key := accountKey(*session.AccountID)
		pipe.SAdd(ctx, key, session.Token)
		pipe.ExpireAt(ctx, key, session.ExpiresAt)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session write failed: %w", err)
	}
	return nil
}

// Create stores a new session.
func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	if !session.ExpiresAt.After(time.Now()) {
		return ErrSessionExpired
	}
	return s.write(ctx, session)
}

// Get retrieves a session by token. Missing keys (expired or deleted) are
// reported as not found.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis session read failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.IsExpired() {
		// Delete the key directly; the TTL race window is tiny and the
		// account index self-heals via its own TTL.
		_ = s.client.Del(ctx, sessionKey(token)).Err()
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Update overwrites an existing session.
func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	exists, err := s.client.Exists(ctx, sessionKey(session.Token)).Result()
	if err != nil {
		return fmt.Errorf("redis session check failed: %w", err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}

	return s.write(ctx, session)
}

// UpdateActivity rewrites the session with a new activity timestamp.
func (s *RedisStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.LastActivityAt = lastActivity
	return s.write(ctx, session)
}

// Delete removes a session by token and detaches it from the account index.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	if session.AccountID != nil {
		pipe.SRem(ctx, accountKey(*session.AccountID), token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session delete failed: %w", err)
	}
	return nil
}

// DeleteExpired is mostly a no-op: Redis evicts session keys via TTLs.
func (s *RedisStore) DeleteExpired(ctx context.Context) error {
	return nil
}

// DeleteByAccountID removes every session owned by the account.
func (s *RedisStore) DeleteByAccountID(ctx context.Context, accountID int64) error {
	key := accountKey(accountID)
	tokens, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis account index read failed: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis account session purge failed: %w", err)
	}
	return nil
}
