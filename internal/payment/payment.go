// Package payment creates hosted checkout sessions for orders.
package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Line struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

type CheckoutRequest struct {
	OrderID     string
	Currency    string
	Lines       []Line
	DeliveryFee decimal.Decimal
	SuccessURL  string
	CancelURL   string
	// ExpiresAt closes the session for payment; zero keeps the provider default.
	ExpiresAt time.Time
}

type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error)
}

// toMinorUnits converts an amount to cents.
func toMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
