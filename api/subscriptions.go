package api

import (
	"net/http"

	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/errors"
	"github.com/vocdoni/saas-checkout/stripe"
	"github.com/vocdoni/saas-checkout/validator"
)

// createSubscriptionHandler creates a customer with the payment method
// provided and subscribes it to the requested price. The response includes
// the client secret of the first invoice payment.
func (a *API) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[apicommon.SubscriptionRequest](r)
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	result, err := a.stripe.CreateSubscription(req.CustomerEmail, req.PaymentMethodID, req.PriceID)
	if err != nil {
		if stripe.IsClientError(err) {
			errors.ErrInvalidData.WithErr(err).Write(w)
			return
		}
		errors.ErrSubscriptionFailed.WithErr(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.SubscriptionResponse{
		SubscriptionID: result.SubscriptionID,
		ClientSecret:   result.ClientSecret,
		CustomerID:     result.CustomerID,
	})
}

// cancelSubscriptionHandler schedules the cancellation of a subscription at
// the end of its current period. Cancelling twice returns the same result.
func (a *API) cancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[apicommon.CancelSubscriptionRequest](r)
	if !ok {
		errors.ErrSubscriptionIDIsRequired.Write(w)
		return
	}
	sub, err := a.stripe.CancelSubscription(req.SubscriptionID)
	if err != nil {
		if stripe.IsClientError(err) {
			errors.ErrSubscriptionIDIsRequired.WithErr(err).Write(w)
			return
		}
		errors.ErrCancelSubscriptionFailed.WithErr(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.CancelSubscriptionResponse{
		Success:      true,
		Subscription: sub,
	})
}
