package checkout

import (
	"fmt"
	"strings"
	"sync"

	"go.vocdoni.io/dvote/log"
)

// Mode selects what the checkout form submits.
type Mode int

const (
	// ModeOneTime charges the entered amount once.
	ModeOneTime Mode = iota
	// ModeSubscription subscribes the entered email to the configured price.
	ModeSubscription
)

func (m Mode) String() string {
	switch m {
	case ModeOneTime:
		return "one-time"
	case ModeSubscription:
		return "subscription"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the mode named s, as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-time", "onetime", "payment":
		return ModeOneTime, nil
	case "subscription", "subscribe":
		return ModeSubscription, nil
	default:
		return 0, fmt.Errorf("unknown checkout mode %q", s)
	}
}

// Messages shown to the user at the end of each flow.
const (
	MsgPaymentSuccessful      = "Payment successful!"
	MsgPaymentFailed          = "Payment failed"
	MsgPaymentError           = "Payment error"
	MsgSubscriptionSuccessful = "Subscription successful"
	MsgSubscriptionFailed     = "Subscription failed"
	MsgNoActiveSubscription   = "No active subscription found"
	MsgSubscriptionCanceled   = "Subscription canceled successfully"
	MsgCancelFailed           = "Failed to cancel subscription"
)

// PaymentIntentSucceeded is the status of a confirmed payment intent.
const PaymentIntentSucceeded = "succeeded"

// Confirmer is the card side of the processor SDK.
type Confirmer interface {
	// CreatePaymentMethod turns the entered card into a payment method
	// owned by email and returns its id.
	CreatePaymentMethod(email string) (string, error)
	// ConfirmCardPayment confirms the payment intent of clientSecret with
	// the entered card and returns the resulting intent status. A declined
	// card is returned as an error.
	ConfirmCardPayment(clientSecret string) (string, error)
}

// Alerter shows blocking messages to the user and asks for input.
type Alerter interface {
	Alert(msg string)
	Prompt(msg string) string
}

// ErrBusy is returned when a submission arrives while another one is still
// being processed.
var ErrBusy = fmt.Errorf("checkout is processing a previous submission")

// Flow is the state of the checkout form. Its methods follow the steps of
// the browser page and report the outcome through the Alerter.
type Flow struct {
	client    *Client
	confirmer Confirmer
	alerter   Alerter
	priceID   string

	mu      sync.Mutex
	mode    Mode
	loading bool
}

// NewFlow returns a flow in ModeOneTime. priceID is sent when subscribing,
// empty to use the price configured in the backend.
func NewFlow(client *Client, confirmer Confirmer, alerter Alerter, priceID string) *Flow {
	return &Flow{
		client:    client,
		confirmer: confirmer,
		alerter:   alerter,
		priceID:   priceID,
	}
}

// SetMode toggles between the one-time payment and the subscription forms.
func (f *Flow) SetMode(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

// Mode returns the current form mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Loading reports whether a submission is being processed.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Submit runs the flow of the current mode: amount is used by one-time
// payments and email by subscriptions. It returns the message alerted, or
// an empty string if the flow ended without one.
func (f *Flow) Submit(amount int64, email string) (string, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return "", ErrBusy
	}
	f.loading = true
	mode := f.mode
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
	}()

	if mode == ModeSubscription {
		return f.subscribe(email), nil
	}
	return f.payOnce(amount), nil
}

func (f *Flow) payOnce(amount int64) string {
	clientSecret, err := f.client.CreatePaymentIntent(amount)
	if err != nil {
		log.Warnw("error processing payment", "error", err)
		return f.alert(MsgPaymentError)
	}
	status, err := f.confirmer.ConfirmCardPayment(clientSecret)
	if err != nil {
		log.Warnw("payment failed", "error", err)
		return f.alert(MsgPaymentFailed)
	}
	if status == PaymentIntentSucceeded {
		return f.alert(MsgPaymentSuccessful)
	}
	log.Infow("payment not completed", "status", status)
	return ""
}

func (f *Flow) subscribe(email string) string {
	paymentMethodID, err := f.confirmer.CreatePaymentMethod(email)
	if err != nil {
		log.Warnw("error creating payment method", "error", err)
		return f.alert(MsgSubscriptionFailed)
	}
	sub, err := f.client.CreateSubscription(email, paymentMethodID, f.priceID)
	if err != nil {
		log.Warnw("error processing subscription", "error", err)
		return f.alert(MsgSubscriptionFailed)
	}
	if _, err := f.confirmer.ConfirmCardPayment(sub.ClientSecret); err != nil {
		log.Warnw("payment failed", "subscription", sub.SubscriptionID, "error", err)
		return f.alert(MsgPaymentFailed)
	}
	log.Infow("subscription created", "subscription", sub.SubscriptionID, "customer", sub.CustomerID)
	return f.alert(MsgSubscriptionSuccessful)
}

// CancelSubscription prompts for the subscription id and asks the backend
// to cancel it.
func (f *Flow) CancelSubscription() string {
	subscriptionID := strings.TrimSpace(f.alerter.Prompt("Enter the subscription ID to cancel:"))
	if subscriptionID == "" {
		return f.alert(MsgNoActiveSubscription)
	}
	if _, err := f.client.CancelSubscription(subscriptionID); err != nil {
		log.Warnw("error canceling subscription", "error", err)
		return f.alert(MsgCancelFailed)
	}
	return f.alert(MsgSubscriptionCanceled)
}

func (f *Flow) alert(msg string) string {
	f.alerter.Alert(msg)
	return msg
}
