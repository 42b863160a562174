package order

import (
	"strconv"
	"strings"
)

// PlaceRequest payload of /order/place. Items is accepted for compatibility
// with older clients and ignored: the cart is authoritative.
// swagger:model PlaceOrderRequest
type PlaceRequest struct {
	Address Address `json:"address"`
	Items   any     `json:"items,omitempty" swaggerignore:"true"`
}

// PlaceResponse is returned by /order/place.
// swagger:model PlaceOrderResponse
type PlaceResponse struct {
	OrderID    string `json:"order_id"    example:"6f1c3f7e-2b4d-4f0e-9a51-1f0e7c2d9b11"`
	SessionID  string `json:"session_id"  example:"cs_test_a1b2c3"`
	SessionURL string `json:"session_url" example:"https://checkout.stripe.com/c/pay/cs_test_a1b2c3"`
}

// Flag decodes a JSON bool or the strings "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// VerifyRequest payload of /order/verify.
// swagger:model VerifyOrderRequest
type VerifyRequest struct {
	OrderID string `json:"orderId" binding:"required" example:"6f1c3f7e-2b4d-4f0e-9a51-1f0e7c2d9b11"`
	Success *Flag  `json:"success" binding:"required" swaggertype:"boolean"`
}

// StatusRequest payload of /order/status.
// swagger:model OrderStatusRequest
type StatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status"  binding:"required,max=64" example:"Out for delivery"`
}
