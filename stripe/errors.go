package stripe

import (
	"errors"
	"fmt"
)

// Error codes of StripeError
const (
	CodeWebhookValidation = "webhook_validation"
	CodeInvalidEvent      = "invalid_event"
	CodeInvalidRequest    = "invalid_request"
	CodeAPICallFailed     = "api_call_failed"
	CodePersistenceFailed = "persistence_failed"
	CodeProcessingFailed  = "processing_failed"
)

// StripeError represents a Stripe-specific error
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Is matches any StripeError with the same code, so the sentinels below can
// be used with errors.Is.
func (e *StripeError) Is(target error) bool {
	t, ok := target.(*StripeError)
	return ok && t.Code == e.Code
}

// Common Stripe errors
var (
	ErrWebhookValidation = &StripeError{Code: CodeWebhookValidation, Message: "webhook signature validation failed"}
	ErrInvalidEvent      = &StripeError{Code: CodeInvalidEvent, Message: "invalid webhook event"}
	ErrInvalidRequest    = &StripeError{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrAPICallFailed     = &StripeError{Code: CodeAPICallFailed, Message: "stripe API call failed"}
	ErrPersistenceFailed = &StripeError{Code: CodePersistenceFailed, Message: "webhook record could not be persisted"}
	ErrProcessingFailed  = &StripeError{Code: CodeProcessingFailed, Message: "webhook event could not be processed"}
)

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsClientError reports whether err was caused by the caller: a payload that
// failed the signature check, an undecodable event or invalid parameters.
func IsClientError(err error) bool {
	var stripeErr *StripeError
	if !errors.As(err, &stripeErr) {
		return false
	}
	switch stripeErr.Code {
	case CodeWebhookValidation, CodeInvalidEvent, CodeInvalidRequest:
		return true
	default:
		return false
	}
}
