package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/seee/internal/validation"
)

type signup struct {
	Username string `validate:"required,min=3"`
	Role     string `validate:"omitempty,oneof=user admin"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, validation.Struct(signup{Username: "bob"}))

	err := validation.Struct(signup{Username: "ab", Role: "root"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Contains(t, err.Error(), "username must be at least 3 characters")
	assert.Contains(t, err.Error(), "role must be one of: user admin")

	err = validation.Struct(signup{})
	assert.Contains(t, err.Error(), "username is required")
}
