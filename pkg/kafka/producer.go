package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key string, message interface{}) error
	Close() error
}

type producer struct {
	syncProducer sarama.SyncProducer
}

// NewProducer builds a synchronous producer that returns only after the
// broker has acknowledged durable receipt (acks=all).
func NewProducer(brokers []string) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}

	return &producer{syncProducer: p}, nil
}

// ProduceMessage JSON-encodes message and publishes it under key. Messages
// sharing a key land on the same partition, so consumers see them in order.
func (p *producer) ProduceMessage(ctx context.Context, topic string, key string, message interface{}) error {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		return err
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	var headers []sarama.RecordHeader
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(jsonMsg),
		Headers: headers,
	}

	if _, _, err := p.syncProducer.SendMessage(msg); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	return nil
}

func (p *producer) Close() error {
	return p.syncProducer.Close()
}
