package messenger

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leavehub/internal/effect"
	"leavehub/internal/events"
	"leavehub/internal/metrics"
)

// MessageSource dipenuhi oleh *kafkago.Reader.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeNotifications membaca event notifikasi dari Kafka dan meneruskannya
// ke gateway messaging. Pesan di-commit hanya setelah terkirim, atau saat
// pengiriman ulang dipastikan percuma.
func ConsumeNotifications(
	ctx context.Context,
	source MessageSource,
	gateway Gateway,
	logger *zap.Logger,
) {
	log := logger.Named("messenger.consumer")
	log.Info("notification consumer started")

	for {
		msg, err := source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		var event events.NotificationQueuedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode notification_queued event failed", zap.Error(err))
			_ = source.CommitMessages(ctx, msg)
			continue
		}

		if event.RecipientPhone == "" {
			log.Warn("notification without recipient phone, skipping",
				zap.String("request_id", event.RequestID),
				zap.String("kind", event.Kind),
			)
			_ = source.CommitMessages(ctx, msg)
			continue
		}

		if err := gateway.Send(ctx, event.RecipientPhone, event.Body); err != nil {
			if effect.IsPermanent(err) {
				metrics.NotificationsDelivered.WithLabelValues("dropped").Inc()
				log.Error("notification rejected by gateway, dropping",
					zap.String("request_id", event.RequestID),
					zap.String("kind", event.Kind),
					zap.Error(err),
				)
				_ = source.CommitMessages(ctx, msg)
				continue
			}

			metrics.NotificationsDelivered.WithLabelValues("retried").Inc()
			log.Error("send notification failed, leaving uncommitted for redelivery",
				zap.String("request_id", event.RequestID),
				zap.String("kind", event.Kind),
				zap.Error(err),
			)
			continue
		}

		if err := source.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
			continue
		}

		metrics.NotificationsDelivered.WithLabelValues("delivered").Inc()
		log.Info("notification delivered",
			zap.String("request_id", event.RequestID),
			zap.String("request_number", event.RequestNumber),
			zap.String("kind", event.Kind),
		)
	}
}
