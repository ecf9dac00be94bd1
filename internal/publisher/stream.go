// Package publisher pushes generated meta-picks onto Redis Streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StreamPublisher publishes meta-pick decisions to Redis Streams
type StreamPublisher struct {
	client *redis.Client
}

// Envelope wraps a decision with its delivery identity. The decision itself
// stays deterministic; identity and timing live out here at the boundary.
type Envelope struct {
	DecisionID  string          `json:"decision_id"`
	PublishedAt time.Time       `json:"published_at"`
	Decision    models.Decision `json:"decision"`
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// PublishDecision publishes a single decision to the metapicks.generated stream
func (p *StreamPublisher) PublishDecision(ctx context.Context, decision models.Decision) error {
	envelope := Envelope{
		DecisionID:  uuid.New().String(),
		PublishedAt: time.Now(),
		Decision:    decision,
	}

	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	streamKey := fmt.Sprintf("metapicks.generated.%s", decision.SportKey)

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(envelopeJSON),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", streamKey, err)
	}

	return nil
}

// PublishDecisions publishes multiple decisions
func (p *StreamPublisher) PublishDecisions(ctx context.Context, decisions []models.Decision) error {
	if len(decisions) == 0 {
		return nil
	}

	for _, decision := range decisions {
		if err := p.PublishDecision(ctx, decision); err != nil {
			return err
		}
	}

	return nil
}
