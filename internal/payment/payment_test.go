package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
)

type failingGateway struct{ calls int }

func (f *failingGateway) CreateSession(context.Context, CheckoutRequest) (*Session, error) {
	f.calls++
	return nil, errors.New("boom")
}

func TestToMinorUnits(t *testing.T) {
	cases := map[string]int64{"12.00": 1200, "0.5": 50, "2.005": 201, "0": 0}
	for in, want := range cases {
		if got := toMinorUnits(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: got %d want %d", in, got, want)
		}
	}
}

func TestBuildSessionParams(t *testing.T) {
	p := buildSessionParams(CheckoutRequest{
		OrderID:     "o1",
		Currency:    "usd",
		Lines:       []Line{{Name: "Soup", UnitPrice: decimal.RequireFromString("4.25"), Quantity: 2}},
		DeliveryFee: decimal.RequireFromString("2"),
		SuccessURL:  "http://x/verify?success=true&orderId=o1",
		CancelURL:   "http://x/verify?success=false&orderId=o1",
	})
	if len(p.LineItems) != 2 {
		t.Fatalf("line items=%d", len(p.LineItems))
	}
	if *p.LineItems[0].PriceData.UnitAmount != 425 || *p.LineItems[0].Quantity != 2 {
		t.Fatalf("first line=%+v", p.LineItems[0].PriceData)
	}
	if *p.LineItems[1].PriceData.ProductData.Name != deliveryLineName || *p.LineItems[1].PriceData.UnitAmount != 200 {
		t.Fatalf("delivery line wrong")
	}
	if *p.ClientReferenceID != "o1" || *p.Mode != "payment" {
		t.Fatalf("params=%+v", p)
	}
	if p.ExpiresAt != nil {
		t.Fatalf("expires_at set without a deadline: %d", *p.ExpiresAt)
	}
}

func TestBuildSessionParams_ExpiresAt(t *testing.T) {
	deadline := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	p := buildSessionParams(CheckoutRequest{OrderID: "o1", Currency: "usd", ExpiresAt: deadline})
	if p.ExpiresAt == nil || *p.ExpiresAt != deadline.Unix() {
		t.Fatalf("expires_at=%v", p.ExpiresAt)
	}
}

func TestLocalGateway(t *testing.T) {
	s, err := LocalGateway{}.CreateSession(context.Background(), CheckoutRequest{OrderID: "o1", SuccessURL: "http://ok"})
	if err != nil || s.URL != "http://ok" || s.ID != "local_o1" {
		t.Fatalf("s=%+v err=%v", s, err)
	}
}

func TestBreaker_WrapsErrorsAndOpens(t *testing.T) {
	next := &failingGateway{}
	b := NewBreaker(next)
	ctx := context.Background()

	for i := 0; i < tripAfter; i++ {
		_, err := b.CreateSession(ctx, CheckoutRequest{OrderID: "o"})
		if apperr.KindOf(err) != apperr.UpstreamFailure {
			t.Fatalf("call %d: err=%v", i, err)
		}
	}
	_, err := b.CreateSession(ctx, CheckoutRequest{OrderID: "o"})
	if apperr.KindOf(err) != apperr.UpstreamFailure {
		t.Fatalf("open: err=%v", err)
	}
	if next.calls != tripAfter {
		t.Fatalf("open circuit still called the gateway: calls=%d", next.calls)
	}
}
