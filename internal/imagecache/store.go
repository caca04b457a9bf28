package imagecache

import (
	"context"
	"log"
	"sort"

	"github.com/redis/go-redis/v9"
)

// NoImage is cached when a key resolved to nothing, so the lookup is not
// repeated on every pass.
const NoImage = "__no_image__"

// Store is the durable string-keyed image cache. All operations are
// best-effort: errors are logged and treated as a miss, never surfaced.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func MarkerImageKey(ownerID, markerID string) string {
	return "marker_images_" + ownerID + "_" + markerID
}

func ProfileImageKey(userID string) string {
	return "profile_image_" + userID
}

func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s.redis == nil {
		return "", false
	}
	value, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("image cache get %s: %v", key, err)
		return "", false
	}
	return value, true
}

func (s *Store) Set(ctx context.Context, key, value string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, 0).Err(); err != nil {
		log.Printf("image cache set %s: %v", key, err)
	}
}

func (s *Store) Remove(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Printf("image cache remove %s: %v", key, err)
	}
}

// KeysByPrefix returns matching keys in sorted order. Redis reports keys in
// unspecified order; sorting keeps the synthetic pick stable for a fixed
// cache population.
func (s *Store) KeysByPrefix(ctx context.Context, prefix string) []string {
	if s.redis == nil {
		return nil
	}
	keys, err := s.redis.Keys(ctx, prefix+"*").Result()
	if err != nil {
		log.Printf("image cache keys %s: %v", prefix, err)
		return nil
	}
	sort.Strings(keys)
	return keys
}
