package main

import (
	"context"
	"fmt"

	"github.com/MikeMC777/food-ordering/internal/config"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/order"
	mongostore "github.com/MikeMC777/food-ordering/internal/storage/mongo"
	"github.com/MikeMC777/food-ordering/internal/storage/postgres"
	"github.com/MikeMC777/food-ordering/internal/user"
)

type stores struct {
	users  user.Repository
	foods  food.Repository
	orders order.Repository
	ping   func(ctx context.Context) error
	close  func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			users:  user.NewPGRepo(pool),
			foods:  food.NewPGRepo(pool),
			orders: order.NewPGRepo(pool),
			ping:   pool.Ping,
			close:  pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			users:  user.NewMongoRepo(db),
			foods:  food.NewMongoRepo(db),
			orders: order.NewMongoRepo(db),
			ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.DriverMemory:
		return &stores{
			users:  user.NewMemRepo(),
			foods:  food.NewMemRepo(),
			orders: order.NewMemRepo(),
			close:  func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
