package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxhire/backend/internal/models"
)

const sessionKeyPrefix = "interview:session:"

// RedisRepository keeps session state in Redis so multiple instances can
// share it. Expiry rides on the key TTL, refreshed on every Put; the
// per-session lock stays process-local, which is enough as long as one
// instance owns a given session's turns.
type RedisRepository struct {
	rdb     *redis.Client
	locks   *keyedMutex
	idleTTL time.Duration
}

func NewRedisRepository(rdb *redis.Client, idleTTL time.Duration) *RedisRepository {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &RedisRepository{rdb: rdb, locks: newKeyedMutex(), idleTTL: idleTTL}
}

func (r *RedisRepository) Get(ctx context.Context, sessionID string) (*models.InterviewSession, bool, error) {
	s, err := r.rdb.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var sess models.InterviewSession
	if err := json.Unmarshal([]byte(s), &sess); err != nil {
		// corrupt entry: treat as miss by deleting
		_ = r.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
		return nil, false, nil
	}
	return &sess, true, nil
}

func (r *RedisRepository) GetOrDefault(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	s, ok, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultSession(sessionID, time.Now().UTC()), nil
	}
	return s, nil
}

func (r *RedisRepository) Put(ctx context.Context, s *models.InterviewSession) error {
	cp := s.Clone()
	cp.LastActive = time.Now().UTC()

	b, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKeyPrefix+s.SessionID, b, r.idleTTL).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// DeleteExpired is a no-op: Redis evicts on key TTL.
func (r *RedisRepository) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (r *RedisRepository) Lock(sessionID string) func() {
	return r.locks.Lock(sessionID)
}
