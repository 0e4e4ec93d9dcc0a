package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SignInInput is the seller login form.
type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignUpInput is the seller registration form.
type SignUpInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
	StoreName string `validate:"required,max=120"`
	Location  string `validate:"required,max=200"`
}

// ProfileInput completes a store profile for an account that has none.
type ProfileInput struct {
	StoreName string `validate:"required,max=120"`
	Location  string `validate:"required,max=200"`
	Phone     string `validate:"omitempty,max=32"`
}

// ProductInput is the listing form.
type ProductInput struct {
	Name             string  `validate:"required,max=200"`
	Category         string  `validate:"required,max=80"`
	MarketplacePrice float64 `validate:"gte=0"`
	GidersenPrice    float64 `validate:"gte=0"`
}

// ImageFile is an optional listing image.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate checks struct tags and returns an ErrInvalidInput domain error
// naming the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewDomainError(ErrCodeInvalidInput, fmt.Sprintf("%s alanı geçersiz (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return fmt.Errorf("failed to validate input: %w", err)
}
