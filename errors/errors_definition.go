//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// Error codes in the 40001-49999 range are the caller's fault and return an
// HTTP 4xx status. Error codes in the 50001-59999 range are the server's fault
// and return an HTTP 5xx status.
//
// NEVER change any of the current error codes, only append new ones. Gaps in
// the numbering belong to codes that were retired and must not be reused.
var (
	// Validation errors (400)
	ErrMalformedBody            = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrInvalidData              = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid data provided")}
	ErrMissingWebhookSignature  = Error{Code: 40020, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("missing webhook signature header"), LogLevel: "info"}
	ErrInvalidWebhookSignature  = Error{Code: 40021, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("webhook signature verification failed"), LogLevel: "warn"}
	ErrWebhookBodyTooLarge      = Error{Code: 40023, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("webhook body could not be read")}
	ErrSubscriptionIDIsRequired = Error{Code: 40024, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("subscription id is required")}

	// Server errors (500)
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrPaymentIntentFailed        = Error{Code: 50010, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: error creating payment intent"), LogLevel: "error"}
	ErrSubscriptionFailed         = Error{Code: 50011, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: error creating subscription"), LogLevel: "error"}
	ErrCancelSubscriptionFailed   = Error{Code: 50012, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: error cancelling subscription"), LogLevel: "error"}
	ErrWebhookProcessingFailed    = Error{Code: 50013, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: webhook event could not be processed"), LogLevel: "error"}
	ErrServiceUnavailable         = Error{Code: 50301, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("payment service not available"), LogLevel: "error"}
)
