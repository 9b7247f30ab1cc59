package store

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// appendScript pushes ARGV[2..] onto KEYS[1] only when its length equals
// ARGV[1]. It replies {1, newLength} on success and {0, length} otherwise.
var appendScript = redis.NewScript(`
local n = redis.call("LLEN", KEYS[1])
if n ~= tonumber(ARGV[1]) then
	return {0, n}
end
for i = 2, #ARGV do
	redis.call("RPUSH", KEYS[1], ARGV[i])
end
return {1, n + #ARGV - 1}
`)

// RedisStore keeps each log in a Redis list.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a Redis client. Keys are prefix:docID.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisStore(rdb, prefix), nil
}

func (s *RedisStore) key(docID string) string {
	return s.prefix + ":" + docID
}

// Append implements Store. The length check and push run atomically.
func (s *RedisStore) Append(ctx context.Context, docID string, records ...[]byte) error {
	if len(records) == 0 {
		return nil
	}
	first, err := firstVersion(records)
	if err != nil {
		return err
	}
	args := make([]any, 0, len(records)+1)
	args = append(args, first)
	for _, rec := range records {
		args = append(args, rec)
	}

	reply, err := appendScript.Run(ctx, s.rdb, []string{s.key(docID)}, args...).Int64Slice()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", s.key(docID), err)
	}
	if len(reply) != 2 {
		return fmt.Errorf("appending to %s: unexpected reply %v", s.key(docID), reply)
	}
	if reply[0] == 0 {
		return &VersionConflictError{DocID: docID, Expected: first, Actual: int(reply[1])}
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, docID string, fromVersion int) ([][]byte, error) {
	vals, err := s.rdb.LRange(ctx, s.key(docID), int64(max(fromVersion, 0)), -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("loading %s: %w", s.key(docID), err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Version implements Store.
func (s *RedisStore) Version(ctx context.Context, docID string) (int, error) {
	n, err := s.rdb.LLen(ctx, s.key(docID)).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("reading length of %s: %w", s.key(docID), err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
