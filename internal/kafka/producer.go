package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/kalpovskii/checklist-ai/internal/app/models"
	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Publish writes the event keyed by task id so all events of one task land
// on the same partition in order.
func (p *Producer) Publish(ctx context.Context, event models.Event) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func newMessage(event models.Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.TaskID, 10)),
		Value: value,
		Time:  event.At,
	}, nil
}

// DecodeEvent parses a message value written by Producer.
func DecodeEvent(value []byte) (models.Event, error) {
	var event models.Event
	err := json.Unmarshal(value, &event)
	return event, err
}
