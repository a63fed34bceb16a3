package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamKey is the stream pipeline events are appended to
const DefaultStreamKey = "stats.events.basketball_nba"

// StreamPublisher publishes pipeline events to a Redis stream
type StreamPublisher struct {
	client    *redis.Client
	streamKey string
	maxLen    int64
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, streamKey string) *StreamPublisher {
	if streamKey == "" {
		streamKey = DefaultStreamKey
	}
	return &StreamPublisher{
		client:    client,
		streamKey: streamKey,
		maxLen:    10000,
	}
}

// Notify appends an event to the stream
func (p *StreamPublisher) Notify(ctx context.Context, event models.PipelineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling pipeline event: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamKey,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":   string(data),
			"type":   string(event.Type),
			"season": strconv.Itoa(event.Season),
		},
	}).Err()
}
