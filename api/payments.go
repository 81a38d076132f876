package api

import (
	"net/http"

	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/errors"
	"github.com/vocdoni/saas-checkout/stripe"
	"github.com/vocdoni/saas-checkout/validator"
)

// createPaymentIntentHandler creates a one-time payment intent for the amount
// entered in the checkout form and returns its client secret. The processor
// is charged amount times the configured conversion multiplier.
func (a *API) createPaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[apicommon.PaymentIntentRequest](r)
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	intent, err := a.stripe.CreatePaymentIntent(req.Amount)
	if err != nil {
		if stripe.IsClientError(err) {
			errors.ErrInvalidData.WithErr(err).Write(w)
			return
		}
		errors.ErrPaymentIntentFailed.WithErr(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
	})
}
