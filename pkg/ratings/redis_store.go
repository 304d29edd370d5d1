package ratings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rating:"

// RedisStore keeps one hash per record: rating:<id> with average and count
// fields.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb}
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// FetchRatings looks up every id in one pipeline. Ids without a hash are
// left out of the result.
func (s *RedisStore) FetchRatings(ctx context.Context, ids []string) (map[string]types.Rating, error) {
	ret := make(map[string]types.Rating, len(ids))
	if len(ids) == 0 {
		return ret, nil
	}
	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(ids))
	for _, id := range ids {
		if _, ok := cmds[id]; ok {
			continue
		}
		cmds[id] = pipe.HGetAll(ctx, keyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ret, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	for id, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		if rating, ok := ParseRating(fields); ok {
			ret[id] = rating
		}
	}
	return ret, nil
}

func (s *RedisStore) SetRating(ctx context.Context, id string, rating types.Rating) error {
	return s.client.HSet(ctx, keyPrefix+id,
		"average", strconv.FormatFloat(rating.Average, 'f', -1, 64),
		"count", strconv.Itoa(rating.Count),
	).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ParseRating reads the hash fields of a rating. Invalid numbers make the
// rating unusable.
func ParseRating(fields map[string]string) (types.Rating, bool) {
	avg, err := strconv.ParseFloat(fields["average"], 64)
	if err != nil {
		return types.Rating{}, false
	}
	count, err := strconv.Atoi(fields["count"])
	if err != nil || count < 0 {
		return types.Rating{}, false
	}
	return types.Rating{Average: types.SafeNumber(avg), Count: count}, true
}
