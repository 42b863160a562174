package kafka

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/MikeMC777/food-ordering/internal/events"
	"github.com/MikeMC777/food-ordering/internal/logging"
)

// Handler must return nil only when the message may be committed.
type Handler func(ctx context.Context, env events.Envelope) error

type Consumer struct {
	r       *kafka.Reader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start fetches messages and hands them to a pool of workers until ctx is
// cancelled. Undecodable messages are logged and committed.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()
	log := logging.With("kafka-consumer")

	jobs := make(chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				var env events.Envelope
				if err := json.Unmarshal(m.Value, &env); err != nil {
					log.Warn().Err(err).Int64("offset", m.Offset).Msg("skipping undecodable message")
				} else if err := h(ctx, env); err != nil {
					log.Error().Err(err).Str("event_id", env.EventID).Msg("handler failed")
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					log.Error().Err(err).Int64("offset", m.Offset).Msg("commit failed")
				}
			}
		}()
	}
	defer wg.Wait()
	defer close(jobs)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}
