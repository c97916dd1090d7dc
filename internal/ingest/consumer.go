// Package ingest drains raw odds snapshots and game results from Redis
// Streams into the warehouse tables.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamConsumer reads batches from a Redis stream through a consumer group.
// Unlike a long-running subscriber it drains: a read that comes back empty
// means the stream is caught up and the ingest stage can finish.
type StreamConsumer struct {
	redis      *redis.Client
	groupName  string
	consumerID string
	batchSize  int64
	blockTime  time.Duration
}

// NewStreamConsumer creates a consumer bound to one group identity
func NewStreamConsumer(redisClient *redis.Client, groupName, consumerID string) *StreamConsumer {
	return &StreamConsumer{
		redis:      redisClient,
		groupName:  groupName,
		consumerID: consumerID,
		batchSize:  100,
		blockTime:  time.Second,
	}
}

// RawMessage is one undecoded stream entry
type RawMessage struct {
	ID   string
	Data []byte
}

// EnsureGroup creates the consumer group at the stream head if it does not
// exist yet
func (c *StreamConsumer) EnsureGroup(ctx context.Context, streamKey string) error {
	err := c.redis.XGroupCreateMkStream(ctx, streamKey, c.groupName, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group for %s: %w", streamKey, err)
	}
	return nil
}

// ReadBatch pulls up to batchSize undelivered entries. A nil slice with a
// nil error means the stream is drained.
func (c *StreamConsumer) ReadBatch(ctx context.Context, streamKey string) ([]RawMessage, error) {
	streams, err := c.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.groupName,
		Consumer: c.consumerID,
		Streams:  []string{streamKey, ">"},
		Count:    c.batchSize,
		Block:    c.blockTime,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read from %s: %w", streamKey, err)
	}

	var messages []RawMessage
	for _, stream := range streams {
		for _, xmsg := range stream.Messages {
			data, ok := xmsg.Values["data"].(string)
			if !ok {
				// Entries without a data field cannot be retried
				c.Ack(ctx, streamKey, xmsg.ID)
				continue
			}
			messages = append(messages, RawMessage{ID: xmsg.ID, Data: []byte(data)})
		}
	}
	return messages, nil
}

// Ack acknowledges one processed entry
func (c *StreamConsumer) Ack(ctx context.Context, streamKey, messageID string) error {
	return c.redis.XAck(ctx, streamKey, c.groupName, messageID).Err()
}

// AckAll acknowledges a batch, reporting the first failure
func (c *StreamConsumer) AckAll(ctx context.Context, streamKey string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.redis.XAck(ctx, streamKey, c.groupName, ids...).Err(); err != nil {
		return fmt.Errorf("ack %d messages on %s: %w", len(ids), streamKey, err)
	}
	return nil
}
