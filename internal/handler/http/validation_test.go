package http

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterValidation(t *testing.T) {
	v := validator.New()
	accept := func(validator.FieldLevel) bool { return true }

	assert.NotPanics(t, func() { mustRegisterValidation(v, "roomname", accept) })
	assert.Panics(t, func() { mustRegisterValidation(v, "", accept) })
}

func TestRegisterValidators_RoomName(t *testing.T) {
	registerValidators()

	type request struct {
		Name string `json:"name" binding:"roomname"`
	}
	require.NoError(t, binding.Validator.ValidateStruct(request{Name: "Tasting"}))

	err := binding.Validator.ValidateStruct(request{Name: "no way!"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "name", errs[0].Field())
	assert.Equal(t, "roomname", errs[0].Tag())
}
