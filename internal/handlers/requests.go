package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Email           string `form:"email" validate:"required,email"`
	Nickname        string `form:"nickname" validate:"max=40"`
	Password        string `form:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
	SecretKey       string `form:"secret_key" validate:"required"`
}

// JoinRoomRequest is a passcode submitted for a room.
type JoinRoomRequest struct {
	RoomID   string `param:"id" validate:"required"`
	Passcode string `form:"passcode"`
}

// SendMessageRequest is the composer form. Blank text is accepted and ignored.
type SendMessageRequest struct {
	Text string `form:"text" validate:"max=4000"`
}

// validationMessage turns the first validation failure into a sentence for
// the form it came from.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again."
	}

	fe := verrs[0]
	switch fe.Field() + "." + fe.Tag() {
	case "Email.required", "Password.required":
		return "Email and password are required."
	case "Email.email":
		return "Please enter a valid email address."
	case "Password.min":
		return "Password must be at least 8 characters long."
	case "PasswordConfirm.required", "PasswordConfirm.eqfield":
		return "Passwords do not match."
	case "Nickname.max":
		return "Nickname must be at most 40 characters."
	case "SecretKey.required":
		return "The registration key is required."
	case "Text.max":
		return "Messages can be at most 4000 characters."
	default:
		return "Please check the form and try again."
	}
}
