package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/db"
	"github.com/vocdoni/saas-checkout/errors"
)

func paymentIntentObject(id string, amount int64) map[string]any {
	return map[string]any{
		"id":       id,
		"object":   "payment_intent",
		"amount":   amount,
		"currency": "usd",
		"status":   "succeeded",
	}
}

func invoiceObject(id, subscriptionID string) map[string]any {
	return map[string]any{
		"id":           id,
		"object":       "invoice",
		"customer":     "cus_test",
		"subscription": subscriptionID,
		"status":       "paid",
		"lines": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":     "il_" + id,
				"object": "line_item",
				"period": map[string]any{"start": 1733011200, "end": 1735689600},
			}},
		},
	}
}

func postWebhook(payload []byte, headers map[string]string) (int, []byte) {
	status, body, _ := doRequest(http.MethodPost, webhookEndpoint, payload, headers)
	return status, body
}

func assertReceived(c *qt.C, status int, body []byte) {
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	var resp apicommon.WebhookResponse
	c.Assert(json.Unmarshal(body, &resp), qt.IsNil)
	c.Assert(resp.Received, qt.IsTrue)
}

func TestWebhookPaymentSucceeded(t *testing.T) {
	c := qt.New(t)

	payload, header := signedEvent("evt_api_payment", stripeapi.EventTypePaymentIntentSucceeded,
		paymentIntentObject("pi_api_payment", 830))
	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	payment, err := testDB.Payment("pi_api_payment")
	c.Assert(err, qt.IsNil)
	c.Assert(payment.Amount, qt.Equals, int64(830))
	c.Assert(payment.Status, qt.Equals, "succeeded")

	// redelivery
	status, body = postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)
}

func TestWebhookSignatureHeaderFallback(t *testing.T) {
	c := qt.New(t)

	payload, header := signedEvent("evt_api_fallback", stripeapi.EventTypePaymentIntentSucceeded,
		paymentIntentObject("pi_api_fallback", 166))
	status, body := postWebhook(payload, map[string]string{"Signature": header})
	assertReceived(c, status, body)

	_, err := testDB.Payment("pi_api_fallback")
	c.Assert(err, qt.IsNil)
}

func TestWebhookInvalidSignature(t *testing.T) {
	c := qt.New(t)

	payload, _ := signedEvent("evt_api_invalid", stripeapi.EventTypePaymentIntentSucceeded,
		paymentIntentObject("pi_api_invalid", 830))

	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": "t=1,v1=0000"})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	var resp struct {
		Code int `json:"code"`
	}
	c.Assert(json.Unmarshal(body, &resp), qt.IsNil)
	c.Assert(resp.Code, qt.Equals, errors.ErrInvalidWebhookSignature.Code)

	status, body = postWebhook(payload, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(json.Unmarshal(body, &resp), qt.IsNil)
	c.Assert(resp.Code, qt.Equals, errors.ErrMissingWebhookSignature.Code)

	_, err := testDB.Payment("pi_api_invalid")
	c.Assert(err, qt.ErrorIs, db.ErrNotFound)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	c := qt.New(t)

	payload, header := signedEvent("evt_api_invoice_1", stripeapi.EventTypeInvoicePaymentSucceeded,
		invoiceObject("in_api_1", "sub_api_lifecycle"))
	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	// a second paid invoice hits the uniqueness constraint and is acknowledged
	payload, header = signedEvent("evt_api_invoice_2", stripeapi.EventTypeInvoicePaymentSucceeded,
		invoiceObject("in_api_2", "sub_api_lifecycle"))
	status, body = postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	sub, err := testDB.Subscription("sub_api_lifecycle")
	c.Assert(err, qt.IsNil)
	c.Assert(sub.CustomerID, qt.Equals, "cus_test")
	c.Assert(sub.Status, qt.Equals, "paid")
	c.Assert(sub.CurrentPeriodEnd, qt.IsNotNil)

	deleted := map[string]any{"id": "sub_api_lifecycle", "object": "subscription", "status": "canceled"}
	payload, header = signedEvent("evt_api_deleted", stripeapi.EventTypeCustomerSubscriptionDeleted, deleted)
	status, body = postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	sub, err = testDB.Subscription("sub_api_lifecycle")
	c.Assert(err, qt.IsNil)
	c.Assert(sub.Status, qt.Equals, db.SubscriptionStatusCanceled)
}

func TestWebhookUnhandledEvent(t *testing.T) {
	c := qt.New(t)

	payload, header := signedEvent("evt_api_unhandled", stripeapi.EventTypeChargeSucceeded,
		map[string]any{"id": "ch_1", "object": "charge"})
	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)
}

func TestWebhookUnprocessableEventAcknowledged(t *testing.T) {
	c := qt.New(t)

	invoice := invoiceObject("in_api_nocustomer", "sub_api_nocustomer")
	delete(invoice, "customer")
	payload, header := signedEvent("evt_api_nocustomer", stripeapi.EventTypeInvoicePaymentSucceeded, invoice)
	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	_, err := testDB.Subscription("sub_api_nocustomer")
	c.Assert(err, qt.ErrorIs, db.ErrNotFound)

	intent := paymentIntentObject("pi_api_badamount", 830)
	intent["amount"] = "830"
	payload, header = signedEvent("evt_api_badamount", stripeapi.EventTypePaymentIntentSucceeded, intent)
	status, body = postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	_, err = testDB.Payment("pi_api_badamount")
	c.Assert(err, qt.ErrorIs, db.ErrNotFound)
}

func TestWebhookLargePayload(t *testing.T) {
	c := qt.New(t)

	// larger than the body limit of the JSON endpoints
	intent := paymentIntentObject("pi_api_large", 830)
	intent["description"] = strings.Repeat("x", 200<<10)
	payload, header := signedEvent("evt_api_large", stripeapi.EventTypePaymentIntentSucceeded, intent)
	status, body := postWebhook(payload, map[string]string{"Stripe-Signature": header})
	assertReceived(c, status, body)

	_, err := testDB.Payment("pi_api_large")
	c.Assert(err, qt.IsNil)
}
