// Package validator wraps go-playground/validator to check the JSON bodies
// received by the API before they reach the handlers.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("stripeid", validateStripeID)
	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// validateStripeID checks that the field looks like an object id of the
// payment processor, e.g. sub_1Nv0FGQ9. The tag parameter is the expected
// object prefix ("stripeid=sub"). Empty values are valid, use the required
// tag to reject them.
func validateStripeID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if strings.ContainsAny(value, " \t\r\n/") {
		return false
	}
	prefix := fl.Param()
	if prefix == "" {
		return true
	}
	rest, ok := strings.CutPrefix(value, prefix+"_")
	return ok && rest != ""
}
