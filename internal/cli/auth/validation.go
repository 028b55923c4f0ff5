package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
)

// MinPasswordLength matches what the signup and reset forms enforce
const MinPasswordLength = 6

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// LoginInput is checked before any network call
type LoginInput struct {
	Email    string `label:"email" validate:"required,email"`
	Password string `label:"password" validate:"required"`
}

// RegisterInput is the signup form for both reps and companies
type RegisterInput struct {
	FirstName       string `label:"first name" validate:"required"`
	LastName        string `label:"last name" validate:"required"`
	Email           string `label:"email" validate:"required,email"`
	Password        string `label:"password" validate:"required,min=6"`
	ConfirmPassword string `label:"password confirmation" validate:"required,eqfield=Password"`
}

func (r RegisterInput) signupRequest() client.SignupRequest {
	return client.SignupRequest{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Password:  r.Password,
	}
}

// ForgotPasswordInput requests a reset email
type ForgotPasswordInput struct {
	Email string `label:"email" validate:"required,email"`
}

// ResetTokenInput carries a token from a reset email
type ResetTokenInput struct {
	Token string `label:"reset token" validate:"required"`
}

// ResetPasswordInput chooses a new password
type ResetPasswordInput struct {
	Token           string `label:"reset token" validate:"required"`
	NewPassword     string `label:"password" validate:"required,min=6"`
	ConfirmPassword string `label:"password confirmation" validate:"required,eqfield=NewPassword"`
}

// ValidationError lists the problems found in a form before it was sent
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err was raised locally by form validation
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return "passwords do not match"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
