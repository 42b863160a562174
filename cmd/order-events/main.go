// Command order-events consumes the order lifecycle topic and logs every
// event.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/food-ordering/internal/config"
	"github.com/MikeMC777/food-ordering/internal/events"
	"github.com/MikeMC777/food-ordering/internal/kafka"
	"github.com/MikeMC777/food-ordering/internal/logging"
)

const workers = 4

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if len(cfg.KafkaBrokers) == 0 {
		logging.Fatal().Msg("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.With("order-events")
	c := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaTopic, workers)
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("consuming")
	if err := c.Start(ctx, handle(log)); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("bye")
}

func handle(log zerolog.Logger) kafka.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		ev := log.Info().
			Str("event_id", env.EventID).
			Str("event_type", env.EventType).
			Str("order_id", env.CorrelationID).
			Time("occurred_at", env.OccurredAt)

		switch env.EventType {
		case events.EventOrderPlaced:
			p, err := events.Decode[events.OrderPlacedPayload](env)
			if err != nil {
				return err
			}
			ev = ev.Str("user_id", p.UserID).Str("amount", p.Amount).Int("items", p.Items)
		case events.EventPaymentConfirmed, events.EventPaymentFailed, events.EventOrderExpired:
			p, err := events.Decode[events.PaymentPayload](env)
			if err != nil {
				return err
			}
			ev = ev.Str("user_id", p.UserID).Str("reason", p.Reason)
		case events.EventFulfillmentUpdated:
			p, err := events.Decode[events.FulfillmentPayload](env)
			if err != nil {
				return err
			}
			ev = ev.Str("status", p.Status)
		default:
			ev = ev.Bool("unknown_type", true)
		}
		ev.Msg("order event")
		return nil
	}
}
