// Package cart keeps the per-user item-id to quantity mapping stored inside
// the user record.
package cart

import (
	"context"
	"strings"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/food"
)

// Store is the cart part of user.Repository.
type Store interface {
	AddCartItem(ctx context.Context, userID, itemID string) error
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	GetCart(ctx context.Context, userID string) (map[string]int, error)
	ClearCart(ctx context.Context, userID string) error
}

type Catalog interface {
	GetByID(ctx context.Context, id string) (*food.Item, error)
}

type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// ItemRequest payload of /cart/add and /cart/remove.
// swagger:model CartItemRequest
type ItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

var errInvalidItem = apperr.New(apperr.Validation, "invalid item id")

func validItemID(id string) bool {
	return id != "" && !strings.ContainsAny(id, ".$")
}

// AddItem increments the quantity of itemID, creating the entry at 1.
func (s *Service) AddItem(ctx context.Context, userID, itemID string) error {
	if !validItemID(itemID) {
		return errInvalidItem
	}
	if _, err := s.catalog.GetByID(ctx, itemID); err != nil {
		return err
	}
	return s.store.AddCartItem(ctx, userID, itemID)
}

// RemoveItem decrements the quantity and drops the entry at zero. Removing
// an absent item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	if !validItemID(itemID) {
		return errInvalidItem
	}
	return s.store.RemoveCartItem(ctx, userID, itemID)
}

func (s *Service) GetCart(ctx context.Context, userID string) (map[string]int, error) {
	return s.store.GetCart(ctx, userID)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.store.ClearCart(ctx, userID)
}
