package auth

import "github.com/electrogest/electrogest-backend/internal/users"

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
	OriginIP string `json:"-"`
}

// LoginResponse returns the minted token plus the account shape.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"`
	User        users.View `json:"user"`
}

// ChangePasswordRequest rotates the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	OriginIP        string `json:"-"`
}
