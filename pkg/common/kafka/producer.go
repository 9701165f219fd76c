package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Producer publishes dataset events. Messages are keyed by event source so
// that imports and reloads from one origin land on the same partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(topic string) *Producer {
	cfg := config.Load()
	if topic == "" {
		topic = cfg.DatasetEventsTopic
	}
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              1,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

func NewEvent(eventType, source string, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func encodeEvent(event models.Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.Source),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	event := NewEvent(eventType, source, data)
	message, err := encodeEvent(event)
	if err != nil {
		return err
	}

	log := logger.Component("events").WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.writer.Topic,
	})
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		log.WithError(err).Error("Failed to publish event")
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	log.Debug("Event published")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
