package validation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/infra/validation"
)

type request struct {
	Name   string    `validate:"required,max=5"`
	Email  string    `validate:"required,email"`
	Source string    `validate:"omitempty,source"`
	When   time.Time `validate:"required"`
}

func TestValidatorCollectsFieldErrors(t *testing.T) {
	v := validation.New()
	err := v.Validate(context.Background(), request{Name: "toolong", Email: "nope", Source: "bad source"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalid)

	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr))
	rules := map[string]string{}
	for _, f := range verr.Fields {
		rules[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{"Name": "max", "Email": "email", "Source": "source", "When": "required"}, rules)
	assert.Contains(t, err.Error(), "Name: max=5")
}

func TestValidatorAcceptsValidAndNonStruct(t *testing.T) {
	v := validation.New()
	ok := &request{Name: "ana", Email: "ana@example.com", Source: "Airbnb", When: time.Now()}
	assert.NoError(t, v.Validate(context.Background(), ok))
	assert.NoError(t, v.Validate(context.Background(), "plain"))
	assert.NoError(t, v.Validate(context.Background(), (*request)(nil)))
}
