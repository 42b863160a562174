//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/order"
	"github.com/MikeMC777/food-ordering/internal/storage/postgres"
	"github.com/MikeMC777/food-ordering/internal/user"
)

const pgPort = "5432/tcp"

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{pgPort},
		Env: map[string]string{
			"POSTGRES_USER":     "food",
			"POSTGRES_PASSWORD": "food",
			"POSTGRES_DB":       "food",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := c.MappedPort(ctx, pgPort)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("postgres://food:food@%s:%s/food?sslmode=disable", host, port.Port())
}

func TestPostgresRepositories(t *testing.T) {
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, startPostgres(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run must be a no-op
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	users := user.NewPGRepo(pool)
	foods := food.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)

	u := &user.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: "user"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dup := &user.User{ID: "u2", Email: "ada@example.com", PasswordHash: "x", Role: "user"}
	if err := users.Create(ctx, dup); !errors.Is(err, user.ErrAlreadyExist) {
		t.Fatalf("duplicate: %v", err)
	}

	// cart arithmetic
	for i := 0; i < 3; i++ {
		if err := users.AddCartItem(ctx, "u1", "soup"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	_ = users.RemoveCartItem(ctx, "u1", "soup")
	_ = users.RemoveCartItem(ctx, "u1", "absent")
	cart, err := users.GetCart(ctx, "u1")
	if err != nil || cart["soup"] != 2 || len(cart) != 1 {
		t.Fatalf("cart=%v err=%v", cart, err)
	}

	soup := &food.Item{ID: "soup", Name: "Soup", Price: decimal.RequireFromString("4.50"), Category: "Soup"}
	if err := foods.Create(ctx, soup); err != nil {
		t.Fatalf("create food: %v", err)
	}
	list, err := foods.List(ctx, food.Query{Category: "Soup"})
	if err != nil || len(list) != 1 || list[0].Price.StringFixed(2) != "4.50" {
		t.Fatalf("list=%v err=%v", list, err)
	}

	o := &order.Order{
		ID: "o1", UserID: "u1",
		Items:       []order.Item{{FoodID: "soup", Name: "Soup", Price: soup.Price, Quantity: 2}},
		Address:     order.Address{FirstName: "Ada", Email: "ada@example.com"},
		DeliveryFee: decimal.RequireFromString("2"),
		Amount:      decimal.RequireFromString("11"),
		Payment:     order.PaymentPending,
		Status:      order.DefaultStatus,
	}
	if err := orders.Create(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	got, err := orders.UpdatePayment(ctx, "o1", order.PaymentPaid)
	if err != nil || got.Payment != order.PaymentPaid || got.Items[0].Quantity != 2 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	if _, err := orders.UpdatePayment(ctx, "o1", order.PaymentFailed); !errors.Is(err, order.ErrPaymentFinal) {
		t.Fatalf("flip: %v", err)
	}
	if _, err := orders.UpdatePayment(ctx, "nope", order.PaymentPaid); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	o2 := *o
	o2.ID, o2.Payment = "o2", order.PaymentPending
	_ = orders.Create(ctx, &o2)
	expired, err := orders.ExpirePending(ctx, time.Now().Add(time.Minute))
	if err != nil || len(expired) != 1 || expired[0].ID != "o2" {
		t.Fatalf("expired=%v err=%v", expired, err)
	}

	if err := orders.UpdateStatus(ctx, "o1", "Out for delivery"); err != nil {
		t.Fatalf("status on paid order: %v", err)
	}
	if err := orders.UpdateStatus(ctx, "o2", "Out for delivery"); !errors.Is(err, order.ErrNotPaid) {
		t.Fatalf("status on failed order: %v", err)
	}
	if err := orders.UpdateStatus(ctx, "nope", "Out for delivery"); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("status on missing order: %v", err)
	}

	mine, _ := orders.ListByUser(ctx, "u1")
	if len(mine) != 2 || mine[0].ID != "o1" {
		t.Fatalf("mine=%v", mine)
	}
}
