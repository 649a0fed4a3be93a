package portal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const defaultEnrollmentKeyPrefix = "portal:2fa"

// RedisEnrollmentStore shares enrollment records across portal instances.
type RedisEnrollmentStore struct {
	redis  redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisEnrollmentStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisEnrollmentStore {
	if prefix == "" {
		prefix = defaultEnrollmentKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultEnrollmentTTL
	}
	return &RedisEnrollmentStore{redis: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisEnrollmentStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisEnrollmentStore) Get(ctx context.Context, userID string) (*TwoFactorEnrollment, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment store unavailable")
	}

	e := &TwoFactorEnrollment{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "corrupt enrollment record").
			WithMetadata(map[string]any{"user_id": userID})
	}
	return e, nil
}

func (s *RedisEnrollmentStore) Save(ctx context.Context, e *TwoFactorEnrollment) error {
	if e == nil || e.UserID == "" {
		return ErrEnrollmentNotFound
	}

	data, err := json.Marshal(e)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "encode enrollment record")
	}
	if err := s.redis.Set(ctx, s.key(e.UserID), data, s.ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment store unavailable")
	}
	return nil
}

func (s *RedisEnrollmentStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment store unavailable")
	}
	return nil
}
