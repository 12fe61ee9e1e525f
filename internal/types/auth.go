package types

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the identity's public fields plus the
// registered iat/exp/iss set. The password hash is never embedded.
type Claims struct {
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	Phone          string `json:"phone"`
	Role           Role   `json:"role"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
	jwt.RegisteredClaims
}

// RegisterRequest represents the register request body.
type RegisterRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Validate returns a structured set of field errors, never a panic.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is the success body of register and login.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is the generic mutation success body.
type MessageResponse struct {
	Message string `json:"message"`
}
