package auth

import (
	"github.com/dmarroquin/storefront-backend/internal/users"
)

// RegisterRequest contains the payload required to create an account.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
