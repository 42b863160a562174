// Package order implements the order lifecycle: placement from the cart,
// payment confirmation and fulfillment status.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending_payment"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// DefaultStatus is the fulfillment label of a new order.
const DefaultStatus = "Food Processing"

// CanTransition reports whether a payment status may move from -> to.
// Re-applying a terminal status is allowed; flipping between terminals is not.
func CanTransition(from, to PaymentStatus) bool {
	switch from {
	case PaymentPending:
		return to == PaymentPaid || to == PaymentFailed
	case PaymentPaid, PaymentFailed:
		return from == to
	}
	return false
}

// Item is the immutable snapshot of a catalog entry at placement time.
type Item struct {
	FoodID   string          `json:"foodId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Address struct {
	FirstName string `json:"firstName" bson:"first_name" binding:"required,max=60"`
	LastName  string `json:"lastName"  bson:"last_name"  binding:"required,max=60"`
	Email     string `json:"email"     bson:"email"      binding:"required,email"`
	Street    string `json:"street"    bson:"street"     binding:"required,max=200"`
	City      string `json:"city"      bson:"city"       binding:"required,max=100"`
	State     string `json:"state"     bson:"state"      binding:"max=100"`
	Zipcode   string `json:"zipcode"   bson:"zipcode"    binding:"required,max=20"`
	Country   string `json:"country"   bson:"country"    binding:"required,max=100"`
	Phone     string `json:"phone"     bson:"phone"      binding:"required,max=30"`
}

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []Item          `json:"items"`
	Address     Address         `json:"address"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Amount      decimal.Decimal `json:"amount"`
	Payment     PaymentStatus   `json:"payment"`
	Status      string          `json:"status"`
	SessionID   string          `json:"sessionId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Subtotal is the sum of price*quantity over the snapshot.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}
