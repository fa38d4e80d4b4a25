package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leavehub/internal/events"
	"leavehub/internal/messenger"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer meneruskan event notifikasi dari Kafka ke webhook messaging.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gateway := messenger.NewWebhookGateway(messenger.WebhookConfig{
		URL:   os.Getenv("MESSAGING_WEBHOOK_URL"),
		Token: os.Getenv("MESSAGING_WEBHOOK_TOKEN"),
	}, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          envString("KAFKA_NOTIFICATIONS_TOPIC", events.NotificationQueuedTopic),
		GroupID:        envString("KAFKA_CONSUMER_GROUP", "leavehub-messenger"),
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go messenger.ConsumeNotifications(ctx, reader, gateway, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
