package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/user"
)

func setup(t *testing.T) (*Service, *food.MemRepo) {
	t.Helper()
	ctx := context.Background()
	users := user.NewMemRepo()
	if err := users.Create(ctx, &user.User{ID: "u1", Email: "u1@example.com"}); err != nil {
		t.Fatal(err)
	}
	foods := food.NewMemRepo()
	_ = foods.Create(ctx, &food.Item{ID: "pizza", Name: "Pizza", Price: decimal.NewFromInt(9)})
	_ = foods.Create(ctx, &food.Item{ID: "soup", Name: "Soup", Price: decimal.NewFromInt(4)})
	return NewService(users, foods), foods
}

func TestCart_NetOfAddsAndRemoves(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.AddItem(ctx, "u1", "pizza"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := svc.RemoveItem(ctx, "u1", "pizza"); err != nil {
		t.Fatal(err)
	}
	cart, _ := svc.GetCart(ctx, "u1")
	if cart["pizza"] != 2 {
		t.Fatalf("qty=%d, want 2", cart["pizza"])
	}

	for i := 0; i < 3; i++ {
		if err := svc.RemoveItem(ctx, "u1", "pizza"); err != nil {
			t.Fatal(err)
		}
	}
	cart, _ = svc.GetCart(ctx, "u1")
	if q, ok := cart["pizza"]; ok {
		t.Fatalf("entry should be absent, got %d", q)
	}
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_ = svc.AddItem(ctx, "u1", "soup")

	if err := svc.RemoveItem(ctx, "u1", "pizza"); err != nil {
		t.Fatalf("err=%v", err)
	}
	cart, _ := svc.GetCart(ctx, "u1")
	if len(cart) != 1 || cart["soup"] != 1 {
		t.Fatalf("cart=%v", cart)
	}
}

func TestCart_EmptyVsUnknownUser(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	cart, err := svc.GetCart(ctx, "u1")
	if err != nil || cart == nil || len(cart) != 0 {
		t.Fatalf("empty cart expected, cart=%v err=%v", cart, err)
	}
	_, err = svc.GetCart(ctx, "ghost")
	if !errors.Is(err, user.ErrNotFound) || apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("err=%v", err)
	}
}

func TestCart_AddUnknownFood(t *testing.T) {
	svc, _ := setup(t)
	if err := svc.AddItem(context.Background(), "u1", "sushi"); !errors.Is(err, food.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestCart_RejectsOperatorLikeIDs(t *testing.T) {
	svc, _ := setup(t)
	if err := svc.AddItem(context.Background(), "u1", "$where"); apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("err=%v", err)
	}
	if err := svc.RemoveItem(context.Background(), "u1", "a.b"); apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("err=%v", err)
	}
}

func TestCart_Clear(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_ = svc.AddItem(ctx, "u1", "soup")
	_ = svc.AddItem(ctx, "u1", "pizza")
	if err := svc.ClearCart(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	cart, _ := svc.GetCart(ctx, "u1")
	if len(cart) != 0 {
		t.Fatalf("cart=%v", cart)
	}
}
