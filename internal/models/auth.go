package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the token payload carried through the middleware.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the authenticated actor belongs to facilities staff.
func (c *JWTClaims) IsStaff() bool {
	return c != nil && c.Role.IsStaff()
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and account summary.
type LoginResponse struct {
	AccessToken        string    `json:"access_token"`
	ExpiresIn          int64     `json:"expires_in"`
	IssuedAt           time.Time `json:"issued_at"`
	MustChangePassword bool      `json:"must_change_password"`
	User               UserInfo  `json:"user"`
}

// UserInfo is the public account summary embedded in auth responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// ChangePasswordRequest updates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
