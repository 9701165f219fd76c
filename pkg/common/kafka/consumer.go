package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(topic string, groupID string) *Consumer {
	cfg := config.Load()
	if topic == "" {
		topic = cfg.DatasetEventsTopic
	}
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
	})

	return &Consumer{reader: reader}
}

// Consume blocks until ctx is cancelled. Events of other types are
// committed without invoking handler.
func (c *Consumer) Consume(ctx context.Context, accept []string, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		event, err := decodeEvent(message.Value)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		if accepts(accept, event.Type) {
			if err := handler(ctx, event); err != nil {
				logger.Log.WithError(err).WithFields(map[string]interface{}{
					"event_id":   event.ID,
					"event_type": event.Type,
				}).Error("Failed to process event")
			}
		}
		c.commit(ctx, message)
	}
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func decodeEvent(raw []byte) (models.Event, error) {
	var event models.Event
	err := json.Unmarshal(raw, &event)
	return event, err
}

func accepts(types []string, eventType string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}
