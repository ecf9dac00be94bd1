// Package cache stores the per-run eligibility snapshot in Redis so
// dashboards read a consistent view without hitting Alexandria.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	EligibilityTTL = 15 * time.Minute
)

const eligibilityKey = "consensus:eligibility"

// RedisWriter handles writing engine state to Redis
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client *redis.Client) *RedisWriter {
	return &RedisWriter{client: client}
}

// WriteEligibility stores the eligible capper list from the latest run
func (w *RedisWriter) WriteEligibility(ctx context.Context, eligible []models.EligibleCapper) error {
	data, err := json.Marshal(eligible)
	if err != nil {
		return fmt.Errorf("marshaling eligibility: %w", err)
	}

	return w.client.Set(ctx, eligibilityKey, data, EligibilityTTL).Err()
}

// ReadEligibility returns the cached eligible capper list, or nil when no run
// has populated the cache yet
func (w *RedisWriter) ReadEligibility(ctx context.Context) ([]models.EligibleCapper, error) {
	data, err := w.client.Get(ctx, eligibilityKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading eligibility: %w", err)
	}

	var eligible []models.EligibleCapper
	if err := json.Unmarshal(data, &eligible); err != nil {
		return nil, fmt.Errorf("unmarshaling eligibility: %w", err)
	}

	return eligible, nil
}
