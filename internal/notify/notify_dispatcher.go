package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leavehub/internal/effect"
	"leavehub/internal/events"
)

// Message adalah satu notifikasi siap kirim. Body sudah dirender di sini;
// konsumen messaging tinggal meneruskan ke gateway.
type Message struct {
	Kind           string
	RequestID      string
	RequestNumber  string
	RecipientID    string
	RecipientPhone string
	Body           string
}

type Dispatcher interface {
	Queue(ctx context.Context, msg Message, idempotencyKey string) error
}

// MessageWriter dipenuhi oleh *kafkago.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type KafkaDispatcher struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
}

var _ Dispatcher = (*KafkaDispatcher)(nil)

func NewKafkaDispatcher(writer MessageWriter, topic string, logger ...*zap.Logger) *KafkaDispatcher {
	l := zap.L().Named("notify")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if topic == "" {
		topic = events.NotificationQueuedTopic
	}
	return &KafkaDispatcher{writer: writer, topic: topic, logger: l}
}

func (d *KafkaDispatcher) Queue(ctx context.Context, msg Message, idempotencyKey string) error {
	payload, err := json.Marshal(events.NotificationQueuedEvent{
		EventType:      "notification_queued",
		RequestID:      msg.RequestID,
		RequestNumber:  msg.RequestNumber,
		Kind:           msg.Kind,
		RecipientID:    msg.RecipientID,
		RecipientPhone: msg.RecipientPhone,
		Body:           msg.Body,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		return effect.Permanent(fmt.Errorf("encode notification event: %w", err))
	}

	kmsg := kafkago.Message{
		Topic: d.topic,
		Key:   []byte(msg.RequestID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("notification_queued")},
			{Key: "kind", Value: []byte(msg.Kind)},
			{Key: "idempotency_key", Value: []byte(idempotencyKey)},
		},
	}

	if err := d.writer.WriteMessages(ctx, kmsg); err != nil {
		return effect.Transient(fmt.Errorf("publish notification: %w", err))
	}

	d.logger.Debug("notification queued",
		zap.String("request_id", msg.RequestID),
		zap.String("kind", msg.Kind),
		zap.String("recipient_id", msg.RecipientID),
	)
	return nil
}
