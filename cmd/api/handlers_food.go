package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/food"
	"github.com/MikeMC777/food-ordering/internal/httpx"
	"github.com/MikeMC777/food-ordering/internal/validation"
)

// GET /food/list?category=
func listFoodHandler(svc *food.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), c.Query("category"))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"data": items})
	}
}

// POST /food/add (multipart)
func addFoodHandler(svc *food.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req food.CreateRequest
		if err := c.ShouldBind(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		fh, _ := c.FormFile("image") // nil is rejected by the image store
		it, err := svc.Add(c.Request.Context(), req, fh)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusCreated, gin.H{"message": "Food Added", "data": it})
	}
}

func updateFoodHandler(svc *food.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req food.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		it, err := svc.Update(c.Request.Context(), req)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"data": it})
	}
}

func removeFoodHandler(svc *food.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req food.RemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		if err := svc.Remove(c.Request.Context(), req.ID); err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"message": "Food Removed"})
	}
}
