package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/httpx"
	"github.com/MikeMC777/food-ordering/internal/order"
	"github.com/MikeMC777/food-ordering/internal/validation"
)

// placeOrderHandler godoc
// @Summary   Place an order from the cart
// @Tags      order
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body body order.PlaceRequest true "delivery address"
// @Success   200 {object} order.PlaceResponse
// @Failure   400 {object} httpx.Response "validation error or empty cart"
// @Failure   502 {object} httpx.Response "payment gateway failure"
// @Router    /order/place [post]
func placeOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.PlaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		res, err := svc.Place(c.Request.Context(), httpx.UserID(c), req.Address)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{
			"order_id":    res.OrderID,
			"session_id":  res.SessionID,
			"session_url": res.SessionURL,
		})
	}
}

// verifyOrderHandler records the outcome the checkout page redirected with.
// A declined payment answers success=false with status 200.
func verifyOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		paid := bool(*req.Success)
		if _, err := svc.ConfirmPayment(c.Request.Context(), req.OrderID, paid); err != nil {
			httpx.Fail(c, err)
			return
		}
		if !paid {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Not Paid"})
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"message": "Paid"})
	}
}

func userOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListForUser(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"data": orders})
	}
}

func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListAll(c.Request.Context())
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"data": orders})
	}
}

func updateStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		if err := svc.UpdateStatus(c.Request.Context(), req.OrderID, req.Status); err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"message": "Status Updated"})
	}
}
