package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	keyPrefix      = "cart:"
	defaultTTL     = 72 * time.Hour
	commandTimeout = 5 * time.Second
	maxTxAttempts  = 10
)

// RedisStore keeps each cart in a hash keyed by product id.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a store. Carts expire ttl after their last change.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Key returns the hash key for userID. Ids are compared case-insensitively.
func Key(userID string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(userID))
}

// Items returns the lines of a cart ordered by title.
func (s *RedisStore) Items(ctx context.Context, userID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, Key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeItems(raw)
}

// Add merges item into the cart, summing quantities for an existing line.
// Concurrent writers are resolved with WATCH and retried.
func (s *RedisStore) Add(ctx context.Context, userID string, item Item) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	key := Key(userID)
	field := item.ProductID.String()

	backoff := retry.WithMaxRetries(maxTxAttempts-1, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			line := item
			existing, err := tx.HGet(ctx, key, field).Result()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				var prev Item
				if err := json.Unmarshal([]byte(existing), &prev); err != nil {
					return fmt.Errorf("decode cart line: %w", err)
				}
				line = prev
				line.Quantity += item.Quantity
			}

			encoded, err := json.Marshal(line)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, key, field, encoded)
				p.Expire(ctx, key, s.ttl)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeItems(raw)
}

// Remove deletes a line. Removing a missing line is not an error.
func (s *RedisStore) Remove(ctx context.Context, userID string, productID uuid.UUID) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	key := Key(userID)
	if err := s.client.HDel(ctx, key, productID.String()).Err(); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeItems(raw)
}

// Clear drops the cart.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := s.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func decodeItems(raw map[string]string) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for field, value := range raw {
		var it Item
		if err := json.Unmarshal([]byte(value), &it); err != nil {
			return nil, fmt.Errorf("decode cart line %s: %w", field, err)
		}
		items = append(items, it)
	}
	sortItems(items)
	return items, nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Title != items[j].Title {
			return items[i].Title < items[j].Title
		}
		return items[i].ProductID.String() < items[j].ProductID.String()
	})
}
