package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// LoginRequest is the OAuth2 password-grant style login form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Normalize trims the username; passwords are compared byte-for-byte.
func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// Validate checks that both fields are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
	)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
