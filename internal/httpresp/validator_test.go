package httpresp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
)

type address struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type checkout struct {
	Address address `json:"shipping" validate:"required"`
	Method  string  `json:"method" validate:"oneof=standard express"`
}

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(&checkout{Address: address{Email: "not-an-email"}, Method: "drone"}, "shipping_incomplete")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, "shipping_incomplete", ve.MessageID)
	assert.Equal(t, map[string]string{
		"shipping.fullName": "is required",
		"shipping.email":    "must be a valid email",
		"method":            "must be one of standard express",
	}, ve.Fields)

	assert.NoError(t, v.Validate(&checkout{Address: address{FullName: "A", Email: "a@b.co"}, Method: "express"}))
}
