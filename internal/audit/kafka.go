package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const correlationHeader = "correlation-id"

// producer is the subset of *kgo.Client used by KafkaSink.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaSink publishes events as JSON records keyed by registration id.
type KafkaSink struct {
	client producer
	topic  string
}

// NewKafkaSink connects a producer to brokers. The client connects lazily;
// an unreachable broker surfaces on the first Append.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.RegistrationID),
		Value: value,
	}
	if event.CorrelationID != "" {
		record.Headers = []kgo.RecordHeader{{Key: correlationHeader, Value: []byte(event.CorrelationID)}}
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close releases the client. Close the Publisher first so buffered events
// are delivered.
func (s *KafkaSink) Close() {
	s.client.Close()
}
