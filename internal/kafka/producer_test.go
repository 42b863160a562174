package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MikeMC777/food-ordering/internal/events"
)

func TestProducer_PublishEnqueuesKeyedMessage(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "food.orders", 1)
	env, _ := events.New(events.EventPaymentConfirmed, "test", "order-9", events.PaymentPayload{OrderID: "order-9"})

	if err := p.Publish(context.Background(), env); err != nil {
		t.Fatalf("publish: %v", err)
	}
	m := <-p.inbox
	if string(m.Key) != "order-9" {
		t.Fatalf("key=%q", m.Key)
	}
	if len(m.Headers) != 2 || string(m.Headers[0].Value) != events.EventPaymentConfirmed {
		t.Fatalf("headers=%v", m.Headers)
	}
}

func TestProducer_PublishRespectsContext(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "food.orders", 1)
	env, _ := events.New(events.EventOrderPlaced, "test", "o", nil)
	_ = p.Publish(context.Background(), env) // fills the buffer

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, env); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v", err)
	}
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "food.orders", 1)
	p.Close()
	p.Close() // idempotent
	env, _ := events.New(events.EventOrderPlaced, "test", "o", nil)
	if err := p.Publish(context.Background(), env); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v", err)
	}
}
