package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lessonloop/scenario-backend/internal/logger"
)

const redisKeyPrefix = "scenario:rows:"

// envelope wraps a payload with its write timestamp so age survives the
// round trip through any string store.
type envelope struct {
	SavedAtMS int64           `json:"saved_at_ms"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisStore persists dataset payloads in redis. Entries also get a server
// side expiry well past the resolver's TTL as a hygiene backstop.
type RedisStore struct {
	log *logger.Logger
	rdb *goredis.Client
	now func() time.Time
}

// NewRedisStore connects using REDIS_ADDR (and optional REDIS_PASSWORD) and
// verifies the connection with a short ping.
func NewRedisStore(log *logger.Logger) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		log: log.With("store", "RedisStore"),
		rdb: rdb,
		now: time.Now,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A corrupt envelope is a miss, not a failure; the resolver will
		// refetch and overwrite it.
		s.log.Warn("dropping corrupt cache envelope", "key", key, "error", err)
		return Entry{}, false, nil
	}

	age := s.now().Sub(time.UnixMilli(env.SavedAtMS))
	return Entry{Payload: env.Payload, Age: age}, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, payload []byte) error {
	env, err := json.Marshal(envelope{
		SavedAtMS: s.now().UnixMilli(),
		Payload:   json.RawMessage(payload),
	})
	if err != nil {
		return fmt.Errorf("encode cache envelope: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, env, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
