package api

import (
	"io/fs"
	"net/http"

	root "github.com/vocdoni/saas-checkout"
	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/errors"
	"go.vocdoni.io/dvote/log"
)

const checkoutPageFile = "assets/index.html"

// checkoutPageHandler serves the embedded checkout page.
func (*API) checkoutPageHandler(w http.ResponseWriter, _ *http.Request) {
	page, err := fs.ReadFile(root.Assets, checkoutPageFile)
	if err != nil {
		errors.ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		log.Warnw("failed to write checkout page", "error", err)
	}
}

// checkoutConfigHandler returns the public settings of the payment service:
// the publishable key to load the processor SDK, the default price of the
// subscriptions and how the entered amounts are converted.
func (a *API) checkoutConfigHandler(w http.ResponseWriter, _ *http.Request) {
	if a.stripe == nil {
		errors.ErrServiceUnavailable.Write(w)
		return
	}
	conf := a.stripe.Config()
	apicommon.HTTPWriteJSON(w, &apicommon.CheckoutConfig{
		PublishableKey:   conf.PublishableKey,
		PriceID:          conf.PriceID,
		Currency:         conf.Currency,
		AmountMultiplier: conf.AmountMultiplier,
	})
}
