// Command api serves the food-ordering REST API and its gRPC health check.
//
// @title                       Food Ordering API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/auth"
	"github.com/MikeMC777/food-ordering/internal/authz"
	"github.com/MikeMC777/food-ordering/internal/cache"
	"github.com/MikeMC777/food-ordering/internal/cart"
	"github.com/MikeMC777/food-ordering/internal/config"
	"github.com/MikeMC777/food-ordering/internal/events"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/grpcx"
	"github.com/MikeMC777/food-ordering/internal/kafka"
	"github.com/MikeMC777/food-ordering/internal/logging"
	"github.com/MikeMC777/food-ordering/internal/order"
	"github.com/MikeMC777/food-ordering/internal/payment"
	"github.com/MikeMC777/food-ordering/internal/user"
)

const sweepEvery = time.Minute

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer st.close()

	var c cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		c = cache.NewRedis(rdb)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 256)
		p.Start()
		defer func() {
			p.Close()
			p.WaitClosed()
		}()
		pub = p
	}

	var gw payment.Gateway = payment.LocalGateway{}
	if cfg.StripeSecretKey != "" {
		gw = payment.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		logging.Warn().Msg("STRIPE_SECRET_KEY not set, checkout sessions redirect straight to the verify page")
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("jwt")
	}
	policy, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("authz")
	}
	images, err := food.NewImageStore(cfg.UploadDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("image store")
	}

	foods := food.NewService(st.foods, c, images)
	users := user.NewService(st.users, tokens, cfg.IsAdminEmail)
	carts := cart.NewService(st.users, st.foods)
	orders := order.NewService(st.orders, carts, st.foods, payment.NewBreaker(gw), pub, order.Options{
		DeliveryFee: cfg.DeliveryFee,
		Currency:    cfg.Currency,
		FrontendURL: cfg.FrontendURL,
		Producer:    cfg.ServiceName,
		PendingTTL:  cfg.PendingPaymentTTL,
	})
	go orders.RunSweeper(ctx, sweepEvery)

	health := grpcx.NewHealthServer(cfg.ServiceName, st.ping)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
	}
	go func() {
		if err := health.Serve(ctx, lis, 15*time.Second); err != nil {
			logging.Error().Err(err).Msg("grpc health server stopped")
		}
	}()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: newRouter(app{
			users:     users,
			foods:     foods,
			carts:     carts,
			orders:    orders,
			tokens:    tokens,
			policy:    policy,
			uploadDir: images.Dir(),
			authRate:  cfg.AuthRatePerMin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server")
		}
	}()
	logging.Info().Str("http", cfg.HTTPAddr).Str("grpc", cfg.GRPCAddr).Str("store", cfg.StoreDriver).Msg("food api started")

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	health.Stop()
}
