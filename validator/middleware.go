package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vocdoni/saas-checkout/errors"
	"go.vocdoni.io/dvote/log"
)

// MaxBodyBytes is the largest request body the middleware reads.
const MaxBodyBytes = int64(64 << 10)

type contextKey int

const (
	modelKey contextKey = iota
	validatedModelKey
)

// ValidationError describes a rejected field of a request body.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors is the list of rejected fields, sent as the data of an
// invalid data error.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, ", ")
}

// AddModelMiddleware sets the type the next InputValidator decodes the body
// into. Pass a zero value, not a pointer.
func (*Validator) AddModelMiddleware(model any) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), modelKey, model)))
		})
	}
}

// InputValidator decodes the body into a fresh instance of the model set by
// AddModelMiddleware and validates it. Handlers read the result with Model.
// Requests without a model, or with a bodyless method, pass through.
func (v *Validator) InputValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model := r.Context().Value(modelKey)
		if model == nil || !hasBody(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			errors.ErrMalformedBody.WithErr(err).Write(w)
			return
		}
		instance := reflect.New(reflect.TypeOf(model)).Interface()
		if err := json.Unmarshal(body, instance); err != nil {
			errors.ErrMalformedBody.WithErr(err).Write(w)
			return
		}
		if err := v.validator.Struct(instance); err != nil {
			fieldErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				errors.ErrInvalidData.WithErr(err).Write(w)
				return
			}
			rejected := toValidationErrors(fieldErrs)
			log.Debugw("request rejected", "path", r.URL.Path, "errors", rejected.Error())
			errors.ErrInvalidData.WithErr(rejected).WithData(rejected).Write(w)
			return
		}
		// handlers may still read the raw body
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), validatedModelKey, instance)))
	})
}

// Model returns the body validated by InputValidator, or false if the request
// carries none of type T.
func Model[T any](r *http.Request) (*T, bool) {
	typed, ok := r.Context().Value(validatedModelKey).(*T)
	return typed, ok
}

func hasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete:
		return false
	}
	return true
}

func toValidationErrors(fieldErrs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// message returns a human-readable description of a failed rule.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "stripeid":
		if fe.Param() != "" {
			return fmt.Sprintf("Must be a %s_ identifier", fe.Param())
		}
		return "Invalid identifier"
	default:
		return "Invalid value: " + fe.Tag()
	}
}
