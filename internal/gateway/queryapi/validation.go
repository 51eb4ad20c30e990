package queryapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/quirelab/quire/internal/gateway"
)

// validate is the singleton validator instance used across all handlers.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// decodeAndValidate decodes a JSON request body and validates it.
// Returns the validated request struct or an error.
func decodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, gateway.FormatValidationErrors(err)
	}
	return &req, nil
}
