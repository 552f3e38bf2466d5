package queue

import (
	"context"
	"encoding/json"

	"ieltsprep/backend/models"

	"github.com/go-redis/redis/v8"
)

type Producer struct {
	client *redis.Client
	queue  string
}

func NewProducer(client *redis.Client, queueName string) *Producer {
	return &Producer{client: client, queue: queueName}
}

// Dispatch enqueues an extraction job.
func (p *Producer) Dispatch(ctx context.Context, job models.ExtractionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.queue, data).Err()
}
