package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/food-ordering/docs"
	"github.com/MikeMC777/food-ordering/internal/cart"
	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/httpx"
	"github.com/MikeMC777/food-ordering/internal/order"
	"github.com/MikeMC777/food-ordering/internal/user"
	"github.com/MikeMC777/food-ordering/internal/validation"
)

type app struct {
	users     *user.Service
	foods     *food.Service
	carts     *cart.Service
	orders    *order.Service
	tokens    httpx.TokenValidator
	policy    httpx.Policy
	uploadDir string
	authRate  int
}

func newRouter(a app) *gin.Engine {
	validation.Register()

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if a.uploadDir != "" {
		r.Static("/images", a.uploadDir)
	}

	limit := httpx.RateLimit(a.authRate)
	r.POST("/register", limit, registerHandler(a.users))
	r.POST("/login", limit, loginHandler(a.users))
	r.GET("/food/list", listFoodHandler(a.foods))
	r.POST("/order/verify", verifyOrderHandler(a.orders))

	secured := r.Group("/", httpx.Auth(a.tokens), httpx.Authorize(a.policy))
	{
		secured.POST("/food/add", addFoodHandler(a.foods))
		secured.POST("/food/update", updateFoodHandler(a.foods))
		secured.POST("/food/remove", removeFoodHandler(a.foods))

		secured.POST("/cart/add", addToCartHandler(a.carts))
		secured.POST("/cart/remove", removeFromCartHandler(a.carts))
		secured.POST("/cart/get", getCartHandler(a.carts))

		secured.POST("/order/place", placeOrderHandler(a.orders))
		secured.POST("/order/userorders", userOrdersHandler(a.orders))
		secured.GET("/order/list", listOrdersHandler(a.orders))
		secured.POST("/order/status", updateStatusHandler(a.orders))
	}
	return r
}
