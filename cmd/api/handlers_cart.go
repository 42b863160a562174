package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/cart"
	"github.com/MikeMC777/food-ordering/internal/httpx"
	"github.com/MikeMC777/food-ordering/internal/validation"
)

func addToCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		if err := svc.AddItem(c.Request.Context(), httpx.UserID(c), req.ItemID); err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"message": "Added To Cart"})
	}
}

func removeFromCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		if err := svc.RemoveItem(c.Request.Context(), httpx.UserID(c), req.ItemID); err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"message": "Removed From Cart"})
	}
}

func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.GetCart(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"cartData": data})
	}
}
