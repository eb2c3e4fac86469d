package gateway

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
)

// Publisher pushes accepted webhook events onto the ticket event bus.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// PubSubPublisher publishes to a GCP Pub/Sub topic with bounded retries.
type PubSubPublisher struct {
	topic      *pubsub.Topic
	maxRetries int
	timeout    time.Duration
	logger     *log.Logger
}

func NewPubSubPublisher(client *pubsub.Client, topicID string, maxRetries int, timeout time.Duration, logger *log.Logger) *PubSubPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &PubSubPublisher{
		topic:      client.Topic(topicID),
		maxRetries: maxRetries,
		timeout:    timeout,
		logger:     logger,
	}
}

// Publish sends one message, retrying on failure with a short backoff.
// Returns the server-assigned message id of the successful attempt.
func (p *PubSubPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		result := p.topic.Publish(pubCtx, &pubsub.Message{Data: data, Attributes: attrs})
		id, err := result.Get(pubCtx)
		cancel()

		if err == nil {
			return id, nil
		}
		lastErr = err
		p.logger.Printf("publish attempt %d/%d failed: %v", attempt+1, p.maxRetries+1, err)
	}
	return "", fmt.Errorf("failed to publish after %d attempts: %w", p.maxRetries+1, lastErr)
}

// Stop flushes pending messages. Call on shutdown.
func (p *PubSubPublisher) Stop() {
	p.topic.Stop()
}
