package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type passwordForm struct {
	Password string `validate:"password"`
}

func TestNewValidatorRegistersPasswordRule(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Struct(passwordForm{Password: "Passw0rd!"}))
	assert.Error(t, v.Struct(passwordForm{Password: "password"}))
}

func TestServicesShareOneValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	auth := NewAuthService(AuthServiceParams{Validator: v, Logger: zap.NewNop()})
	users := NewUserService(UserServiceParams{Validator: v, Logger: zap.NewNop()})

	assert.Same(t, v, auth.validator)
	assert.Same(t, v, users.validator)
	assert.NoError(t, v.Struct(passwordForm{Password: "Passw0rd!"}))
}

func TestDefaultValidatorCarriesPasswordRule(t *testing.T) {
	svc := NewUserService(UserServiceParams{})
	require.NotNil(t, svc.validator)
	assert.Error(t, svc.validator.Struct(passwordForm{Password: "weak"}))
}
