// Package checkout implements the client side of the checkout: an HTTP client
// for the backend endpoints and the flow followed by the checkout form, with
// the processor SDK and the user prompts behind interfaces.
package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vocdoni/saas-checkout/api/apicommon"
	"go.vocdoni.io/dvote/log"
)

// Client wraps the HTTP calls to the checkout backend.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a client for the backend listening at baseURL, e.g.
// http://localhost:5000.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// doJSON sends an HTTP request and decodes a JSON response into target when provided.
func (c *Client) doJSON(method, path string, body, target any) error {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, fullURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request %s %s: %w", method, fullURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnw("cannot close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		trimmed := strings.TrimSpace(string(respBody))
		if trimmed == "" {
			trimmed = "no response body"
		}
		return fmt.Errorf("request %s %s failed with status %d: %s", method, fullURL, resp.StatusCode, trimmed)
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return fmt.Errorf("drain response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, fullURL, err)
	}
	return nil
}

// Config fetches the public checkout settings.
func (c *Client) Config() (*apicommon.CheckoutConfig, error) {
	var resp apicommon.CheckoutConfig
	if err := c.doJSON(http.MethodGet, "/config", nil, &resp); err != nil {
		return nil, fmt.Errorf("GET /config: %w", err)
	}
	return &resp, nil
}

// CreatePaymentIntent asks the backend for a one-time payment intent and
// returns its client secret.
func (c *Client) CreatePaymentIntent(amount int64) (string, error) {
	var resp apicommon.PaymentIntentResponse
	req := apicommon.PaymentIntentRequest{Amount: amount}
	if err := c.doJSON(http.MethodPost, "/create-payment-intent", req, &resp); err != nil {
		return "", fmt.Errorf("POST /create-payment-intent: %w", err)
	}
	if resp.ClientSecret == "" {
		return "", fmt.Errorf("POST /create-payment-intent: empty client secret in response")
	}
	return resp.ClientSecret, nil
}

// CreateSubscription asks the backend to create a customer and its
// subscription.
func (c *Client) CreateSubscription(email, paymentMethodID, priceID string) (*apicommon.SubscriptionResponse, error) {
	var resp apicommon.SubscriptionResponse
	req := apicommon.SubscriptionRequest{
		CustomerEmail:   email,
		PaymentMethodID: paymentMethodID,
		PriceID:         priceID,
	}
	if err := c.doJSON(http.MethodPost, "/create-subscription", req, &resp); err != nil {
		return nil, fmt.Errorf("POST /create-subscription: %w", err)
	}
	return &resp, nil
}

// CancelSubscription asks the backend to cancel the subscription at the end
// of its period.
func (c *Client) CancelSubscription(subscriptionID string) (*apicommon.CancelSubscriptionResponse, error) {
	var resp apicommon.CancelSubscriptionResponse
	req := apicommon.CancelSubscriptionRequest{SubscriptionID: subscriptionID}
	if err := c.doJSON(http.MethodPost, "/cancel-subscription", req, &resp); err != nil {
		return nil, fmt.Errorf("POST /cancel-subscription: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("POST /cancel-subscription: not successful")
	}
	return &resp, nil
}
