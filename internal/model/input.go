package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Input decoding failures shared by the JSON endpoints.
var (
	ErrInvalidBody  = errors.New("invalid request body")
	ErrInvalidInput = errors.New("invalid input data")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeInput unmarshals body into v and runs its validate tags.
// An absent body decodes as "{}" so required fields fail validation rather
// than parsing.
func DecodeInput(body *string, v any) error {
	raw := "{}"
	if body != nil {
		raw = *body
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
