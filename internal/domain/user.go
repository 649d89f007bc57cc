package domain

import (
	"time"
)

// User is an account that can author reviews. Admins may additionally
// write catalog data and delete any review.
type User struct {
	ID           string    `json:"id" db:"id"` // UUID
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	Created      time.Time `json:"created" db:"created"`
}

// AuthToken records an issued login token by its JWT ID. Logout deletes
// the row, which invalidates the token even before it expires.
type AuthToken struct {
	ID        string    `db:"id"` // the token's jti claim
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

// RegisterRequest is the body for creating an account.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=20"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=100"`
	Password2 string `json:"password2" validate:"required"`
}

// LoginRequest is the body for obtaining an auth token.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}
