package dto

import "github.com/noah-isme/drumschool-api/internal/models"

// RegisterRequest is the public self-registration payload.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	Password2 string `json:"password2" validate:"required"`
}

// CreateUserRequest creates an account with an explicit role (management only).
type CreateUserRequest struct {
	Username  string `validate:"required,min=3,max=150"`
	Email     string `validate:"omitempty,email,max=255"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	Password  string `validate:"required,min=8,max=128"`
	Role      string `validate:"required,oneof=admin teacher student"`
}

// TokenRequest exchanges credentials for a token pair.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenPairResponse carries freshly issued tokens.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessTokenResponse carries a refreshed access token.
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// UserResponse serializes an account without its credentials.
type UserResponse struct {
	ID                uint    `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Role              string  `json:"role"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// NewUserResponse converts a model into its DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:                user.ID,
		Username:          user.Username,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Role:              string(user.Role),
		ProfilePictureURL: user.ProfilePictureURL,
	}
}
