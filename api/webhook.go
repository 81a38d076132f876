package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/errors"
	"github.com/vocdoni/saas-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

// maxWebhookBodyBytes bounds webhook payloads. Invoice events embed their
// line items and grow well beyond the request bodies of the other endpoints.
const maxWebhookBodyBytes = int64(1 << 20)

// webhookHandler receives the processor notifications. The raw body is
// needed to verify the signature, so it is read as is. Every event that
// passes the verification is acknowledged with {"received": true}, unless
// it could not be processed and the service is configured to ask for a
// redelivery, which is answered with a 500.
func (a *API) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		log.Errorf("stripe webhook: Stripe service not available")
		errors.ErrServiceUnavailable.Write(w)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		errors.ErrWebhookBodyTooLarge.WithErr(err).Write(w)
		return
	}

	signatureHeader := r.Header.Get("Stripe-Signature")
	if signatureHeader == "" {
		signatureHeader = r.Header.Get("Signature")
	}
	if signatureHeader == "" {
		errors.ErrMissingWebhookSignature.Write(w)
		return
	}

	if err := a.stripe.HandleWebhookEvent(payload, signatureHeader); err != nil {
		if stderrors.Is(err, stripe.ErrWebhookValidation) {
			errors.ErrInvalidWebhookSignature.WithErr(err).Write(w)
			return
		}
		errors.ErrWebhookProcessingFailed.WithErr(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.WebhookResponse{Received: true})
}
