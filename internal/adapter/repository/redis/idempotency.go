package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var errClaimLost = errors.New("idempotency key kept expiring while being claimed")

// pendingResponse marks a key whose first request is still in flight.
const pendingResponse = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: defaultKeyPrefix + "idempotency:",
	}
}

// CheckAndSet claims key. If another request already claimed it, the stored
// response is returned with exists set; a nil response claims the key with a
// pending marker.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	var value any = pendingResponse
	if response != nil {
		value = response
	}

	for attempt := 0; attempt < 2; attempt++ {
		set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
		if err != nil {
			return false, nil, err
		}
		if set {
			return false, nil, nil
		}

		existing, err := s.client.Get(ctx, fullKey).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; claim it again.
			continue
		}
		if err != nil {
			return false, nil, err
		}
		return true, existing, nil
	}

	return false, nil, errClaimLost
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release deletes key so a failed request can be resubmitted.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// IsPending reports whether a stored response is the in-flight marker.
func IsPending(response []byte) bool {
	return string(response) == pendingResponse
}
