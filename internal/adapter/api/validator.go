package api

import "github.com/go-playground/validator/v10"

// Validator adapts go-playground/validator to echo's Validator
// interface. Validation errors are translated in pkg/response.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
