package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/httpx"
	"github.com/MikeMC777/food-ordering/internal/user"
	"github.com/MikeMC777/food-ordering/internal/validation"
)

// registerHandler godoc
// @Summary  Register a new user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.RegisterRequest true "credentials"
// @Success  200 {object} user.TokenResponse
// @Failure  400 {object} httpx.Response
// @Failure  409 {object} httpx.Response
// @Router   /register [post]
func registerHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		token, _, err := svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, user.TokenResponse{Success: true, Token: token})
	}
}

// loginHandler godoc
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.LoginRequest true "credentials"
// @Success  200 {object} user.TokenResponse
// @Failure  401 {object} httpx.Response
// @Router   /login [post]
func loginHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, validation.Translate(err))
			return
		}
		token, _, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, user.TokenResponse{Success: true, Token: token})
	}
}
