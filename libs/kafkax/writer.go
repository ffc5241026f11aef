package kafkax

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// Envelope is one event on its way to Kafka. The topic equals EventType.
type Envelope struct {
	EventID   string
	EventType string
	Key       string
	Payload   []byte
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers string) (*kafka.Writer, error) {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, nil
}

// Message builds the Kafka message for env with event headers and the trace context of ctx.
func Message(ctx context.Context, env Envelope) kafka.Message {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(env.EventID)},
		{Key: HeaderEventType, Value: []byte(env.EventType)},
	}
	return kafka.Message{
		Topic:   env.EventType,
		Key:     []byte(env.Key),
		Value:   env.Payload,
		Headers: InjectTraceHeaders(ctx, headers),
	}
}
