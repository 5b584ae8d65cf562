package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient is an in-memory xredis.Client good enough for tests that
// exercise leaderboards and advisory locks. TTLs are ignored.
type MockRedisClient struct {
	mutex  sync.Mutex
	values map[string]string
	zsets  map[string]map[string]int64
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		values: make(map[string]string),
		zsets:  make(map[string]map[string]int64),
	}
}

func (m *MockRedisClient) Del(ctx context.Context, key ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, k := range key {
		delete(m.values, k)
	}

	return nil
}

func (m *MockRedisClient) ZIncrBy(ctx context.Context, key string, incr int64, member string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]int64)
	}

	m.zsets[key][member] += incr
	return nil
}

func (m *MockRedisClient) ZRevRangeWithScores(
	ctx context.Context, key string, offset, limit int,
) ([]redis.Z, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := []redis.Z{}
	for member, score := range m.zsets[key] {
		result = append(result, redis.Z{Member: member, Score: float64(score)})
	}

	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Score > result[i].Score {
				result[i], result[j] = result[j], result[i]
			}
		}
	}

	if offset >= len(result) {
		return nil, nil
	}

	end := offset + limit
	if end > len(result) {
		end = len(result)
	}

	return result[offset:end], nil
}

func (m *MockRedisClient) ZRevRank(ctx context.Context, key string, member string) (uint64, error) {
	all, err := m.ZRevRangeWithScores(ctx, key, 0, len(m.zsets[key]))
	if err != nil {
		return 0, err
	}

	for i, z := range all {
		if z.Member == member {
			return uint64(i), nil
		}
	}

	return 0, redis.Nil
}

func (m *MockRedisClient) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, held := m.values["lock:"+key]; held {
		return false, nil
	}

	m.values["lock:"+key] = strconv.FormatInt(time.Now().UnixNano(), 10)
	return true, nil
}

func (m *MockRedisClient) Unlock(ctx context.Context, key string) error {
	return m.Del(ctx, "lock:"+key)
}
