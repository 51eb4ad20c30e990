package rest

import (
	"github.com/go-playground/validator/v10"

	"github.com/quirelab/quire/internal/gateway"
)

// validate is the singleton validator instance used across all handlers.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateStruct validates a struct and returns user-friendly errors.
func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return gateway.FormatValidationErrors(err)
	}
	return nil
}
