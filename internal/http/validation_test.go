package http

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddValidations(t *testing.T) {
	t.Run("custom tags validate request fields", func(t *testing.T) {
		v := validator.New()
		require.NoError(t, addValidations(v, customValidators))

		type form struct {
			UID   string `validate:"uid"`
			Phone string `validate:"phone"`
		}

		assert.NoError(t, v.Struct(form{UID: "reader_1", Phone: "+1 (555) 010-2000"}))
		assert.NoError(t, v.Struct(form{UID: "reader.2"}))
		assert.Error(t, v.Struct(form{UID: "bad uid!"}))
		assert.Error(t, v.Struct(form{UID: "reader", Phone: "call me"}))
	})

	t.Run("registration failure is reported", func(t *testing.T) {
		v := validator.New()
		err := addValidations(v, map[string]validator.Func{
			"": func(validator.FieldLevel) bool { return true },
		})
		assert.Error(t, err)
	})

	t.Run("gin engine accepts the custom tags", func(t *testing.T) {
		assert.NotPanics(t, registerValidators)
	})
}
