package queue

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dlqSuffix = ":dlq"

type Consumer struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
	log     zerolog.Logger
}

type MessageHandler func(ctx context.Context, data []byte) error

func NewConsumer(client *redis.Client, queueName string) *Consumer {
	return &Consumer{
		client:  client,
		queue:   queueName,
		timeout: 5 * time.Second,
		log:     log.With().Str("component", "consumer").Str("queue", queueName).Logger(),
	}
}

// DLQ is the list that receives messages the handler rejected.
func (c *Consumer) DLQ() string {
	return c.queue + dlqSuffix
}

// Consume pops messages until ctx is cancelled. Messages the handler fails
// on are moved to the dead-letter list.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := c.client.BRPop(ctx, c.timeout, c.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Timeout, continue polling
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("Failed to consume message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if len(result) < 2 {
			continue
		}

		message := result[1]
		if err := handler(ctx, []byte(message)); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				// interrupted by shutdown before it ran; hand it back for the next consumer
				if reqErr := c.client.RPush(context.WithoutCancel(ctx), c.queue, message).Err(); reqErr != nil {
					c.log.Error().Err(reqErr).Msg("Failed to requeue interrupted message")
				}
				return nil
			}
			c.log.Error().Err(err).Msg("Failed to process message")
			if dlqErr := c.client.LPush(context.WithoutCancel(ctx), c.DLQ(), message).Err(); dlqErr != nil {
				c.log.Error().Err(dlqErr).Str("dlq", c.DLQ()).Msg("Failed to move message to DLQ")
			}
		}
	}
}
