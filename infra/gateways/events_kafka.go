package gateways

import (
	"context"
	"fmt"
	"time"

	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisherKafka writes donation events keyed by center id, so events for
// one center stay ordered within a partition.
type EventPublisherKafka struct {
	writer messageWriter
}

func NewEventPublisherKafka(brokers []string, topic string) *EventPublisherKafka {
	return &EventPublisherKafka{writer: newKafkaWriter(brokers, topic)}
}

// Publish runs inline with the request, one message at a time, so the writer
// must not sit on kafka-go's default one second batch timer.
func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           5 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
}

func (k *EventPublisherKafka) Publish(ctx context.Context, event protocols.DonationRecorded) error {
	payload, err := encodeDonationEvent(event)
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Donation.CenterId),
		Value: payload,
		Time:  event.RecordedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(protocols.DonationRecordedEvent)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (k *EventPublisherKafka) Close() error {
	return k.writer.Close()
}
