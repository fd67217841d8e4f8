package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishFeedingRecorded streams a committed feeding event to Kafka, keyed by
// employee so one employee's events stay in order on a partition.
func (p *Producer) PublishFeedingRecorded(ctx context.Context, event models.FeedingRecordedEventDto) error {
	msg, err := feedingRecordedMessage(event)
	if err != nil {
		return err
	}

	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish feeding event %s: %w", event.EventID, err)
	}

	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("ticket %s for %s", event.TicketID, event.EmployeeID))
	return nil
}

func feedingRecordedMessage(event models.FeedingRecordedEventDto) (kafka.Message, error) {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.EmployeeID),
		Value: msgBytes,
		Time:  event.Timestamp,
	}, nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
