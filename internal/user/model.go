package user

import "time"

type User struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Role         string         `json:"role"`
	Cart         map[string]int `json:"cartData"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RegisterRequest payload of registration.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name"     binding:"max=100"              example:"Ada"`
	Email    string `json:"email"    binding:"required,email"       example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=8,max=72" example:"correct-horse"`
}

// LoginRequest payload of login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by register and login.
// swagger:model TokenResponse
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}
