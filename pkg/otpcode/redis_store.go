package otpcode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisEntryPrefix = "otp:code:"
	redisIndexPrefix = "otp:current:"
)

// putScript stores a new entry and deletes whatever entry the
// (email, purpose) index currently points at, in one atomic step.
//
// KEYS[1] entry key, KEYS[2] index key
// ARGV[1] serialized entry, ARGV[2] expiry unix ms, ARGV[3] handle, ARGV[4] entry key prefix
var putScript = redis.NewScript(`
local old = redis.call('GET', KEYS[2])
if old then
	redis.call('DEL', ARGV[4] .. old)
end
redis.call('SET', KEYS[1], ARGV[1], 'PXAT', ARGV[2])
redis.call('SET', KEYS[2], ARGV[3], 'PXAT', ARGV[2])
return 1
`)

// consumeScript is the atomic compare-and-delete required by the registry:
// lookup, attempt accounting, and deletion happen inside Redis, so only one
// of any number of racing consumers can win. Expiry is enforced by the key
// TTL set at Put time.
//
// KEYS[1] entry key
// ARGV[1] supplied code, ARGV[2] index key prefix, ARGV[3] max attempts
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return {'invalid_or_expired'}
end
local entry = cjson.decode(raw)
if entry.code == ARGV[1] then
	redis.call('DEL', KEYS[1])
	redis.call('DEL', ARGV[2] .. entry.email .. '|' .. entry.purpose)
	return {'success', entry.email, entry.purpose}
end
entry.attempts = entry.attempts + 1
if entry.attempts >= tonumber(ARGV[3]) then
	redis.call('DEL', KEYS[1])
	return {'locked_out'}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('SET', KEYS[1], cjson.encode(entry), 'PX', ttl)
end
return {'mismatch'}
`)

// RedisStore implements Store on a shared Redis instance so every process in
// the deployment sees the same outstanding codes. Expiry rides on native key
// TTLs; DeleteExpired is a no-op.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) entryKey(handle string) string {
	return redisEntryPrefix + handle
}

func (s *RedisStore) indexKey(email string, purpose Purpose) string {
	return redisIndexPrefix + email + "|" + string(purpose)
}

// Put stores the entry and displaces the outstanding one for the same
// (email, purpose) atomically.
func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	keys := []string{s.entryKey(entry.Handle), s.indexKey(entry.Email, entry.Purpose)}
	args := []any{string(raw), entry.ExpiresAt.UnixMilli(), entry.Handle, redisEntryPrefix}

	if err := putScript.Run(ctx, s.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("redis put failed: %w", err)
	}
	return nil
}

// Consume runs the consume decision inside Redis.
func (s *RedisStore) Consume(ctx context.Context, handle, code string, now time.Time) (Result, error) {
	raw, err := consumeScript.Run(ctx, s.client, []string{s.entryKey(handle)}, code, redisIndexPrefix, MaxAttempts).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis consume failed: %w", err)
	}
	if len(raw) == 0 {
		return Result{}, fmt.Errorf("redis consume returned empty reply")
	}

	outcome, _ := raw[0].(string)
	result := Result{Outcome: Outcome(outcome)}
	if result.Outcome == OutcomeSuccess && len(raw) == 3 {
		result.Email, _ = raw[1].(string)
		if purpose, ok := raw[2].(string); ok {
			result.Purpose = Purpose(purpose)
		}
	}
	return result, nil
}

// DeleteExpired is a no-op: Redis evicts entries via key TTLs.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) error {
	return nil
}
