package service

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// NewValidator returns a validator carrying the custom account rules. Build it
// once and share it between services.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("password", validPassword); err != nil {
		return nil, fmt.Errorf("register password rule: %w", err)
	}
	return v, nil
}

// defaultValidator backs services constructed without a validator.
func defaultValidator(logger *zap.Logger) *validator.Validate {
	v, err := NewValidator()
	if err != nil {
		logger.Error("failed to build validator", zap.Error(err))
		return validator.New()
	}
	return v
}

// validPassword requires 8..128 characters with upper, lower, digit and special characters.
func validPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if n := len([]rune(password)); n < 8 || n > 128 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
