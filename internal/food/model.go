package food

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateRequest is the multipart form of /food/add (plus the image file).
// swagger:model CreateFoodRequest
type CreateRequest struct {
	Name        string `form:"name"        binding:"required,max=120" example:"Greek salad"`
	Description string `form:"description" binding:"max=1000"         example:"Tomato, feta, olives"`
	Price       string `form:"price"       binding:"required"         example:"12.00"`
	Category    string `form:"category"    binding:"required,max=60"  example:"Salad"`
}

// UpdateRequest is a partial update; empty fields keep their value.
// swagger:model UpdateFoodRequest
type UpdateRequest struct {
	ID          string `json:"id"          binding:"required"`
	Name        string `json:"name"        binding:"max=120"`
	Description string `json:"description" binding:"max=1000"`
	Price       string `json:"price"       example:"13.50"`
	Category    string `json:"category"    binding:"max=60"`
}

// RemoveRequest payload of /food/remove.
// swagger:model RemoveFoodRequest
type RemoveRequest struct {
	ID string `json:"id" binding:"required"`
}
