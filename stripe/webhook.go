package stripe

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/saas-checkout/db"
	"go.vocdoni.io/dvote/log"
)

// HandleWebhookEvent validates a webhook payload and dispatches it. Events
// already processed are acknowledged without being dispatched again. Only a
// failed signature check returns a client error; events that cannot be
// decoded or stored are reported and acknowledged, or returned as
// ErrProcessingFailed when AckOnFailure is disabled.
func (s *Service) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	event, err := s.processor.ValidateWebhookEvent(payload, signatureHeader)
	if err != nil {
		return err
	}

	unlock := s.lockManager.Lock(event.ID)
	defer unlock()

	if s.events.EventExists(event.ID) {
		log.Debugf("stripe webhook: event %s already processed, skipping", event.ID)
		return nil
	}

	if err := s.HandleEvent(event); err != nil {
		// the event is authentic, failures past this point are ours
		err = NewStripeError(CodeProcessingFailed,
			"event "+event.ID+" ("+string(event.Type)+") could not be processed", err)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("stripe_event_type", string(event.Type))
			scope.SetTag("stripe_event_id", event.ID)
			sentry.CaptureException(err)
		})
		if !s.config.AckOnFailure {
			return err
		}
		// acknowledged but not marked, a manual resend will be dispatched
		log.Errorw(err, "stripe webhook: event "+event.ID+" acknowledged without processing it")
		return nil
	}

	if err := s.events.MarkProcessed(event.ID); err != nil {
		log.Warnw("stripe webhook: cannot mark event as processed", "event", event.ID, "error", err)
	}
	return nil
}

// HandleEvent switches on the event type and writes at most one record.
func (s *Service) HandleEvent(event *stripeapi.Event) error {
	if event == nil || event.Data == nil {
		return ErrInvalidEvent
	}
	switch event.Type {
	case stripeapi.EventTypePaymentIntentSucceeded:
		return s.handlePaymentSucceeded(event)
	case stripeapi.EventTypePaymentIntentPaymentFailed:
		return s.handlePaymentFailed(event)
	case stripeapi.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoicePaymentSucceeded(event)
	case stripeapi.EventTypeInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(event)
	case stripeapi.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	default:
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		return nil
	}
}

// handlePaymentSucceeded stores the payment of a one-time payment intent
func (s *Service) handlePaymentSucceeded(event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return NewStripeError(CodeInvalidEvent, "cannot decode payment intent", err)
	}
	payment := &db.Payment{
		ProcessorPaymentID: intent.ID,
		Amount:             intent.Amount,
		Status:             string(intent.Status),
	}
	if err := s.db.CreatePayment(payment); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			log.Warnw("stripe webhook: payment already stored", "payment", intent.ID, "event", event.ID)
			return nil
		}
		return NewStripeError(CodePersistenceFailed, "cannot store payment "+intent.ID, err)
	}
	log.Infof("stripe webhook: payment %s of %d %s stored", intent.ID, intent.Amount, intent.Currency)
	return nil
}

func (*Service) handlePaymentFailed(event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return NewStripeError(CodeInvalidEvent, "cannot decode payment intent", err)
	}
	reason := ""
	if intent.LastPaymentError != nil {
		reason = intent.LastPaymentError.Msg
	}
	log.Warnw("stripe webhook: payment failed", "payment", intent.ID, "reason", reason)
	return nil
}

// handleInvoicePaymentSucceeded stores the subscription the paid invoice
// belongs to. Only the first invoice of a subscription creates a record,
// renewals hit the uniqueness constraint and are acknowledged.
func (s *Service) handleInvoicePaymentSucceeded(event *stripeapi.Event) error {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return NewStripeError(CodeInvalidEvent, "cannot decode invoice", err)
	}
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		log.Infof("stripe webhook: invoice %s is not related to a subscription, skipping", invoice.ID)
		return nil
	}
	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	subscription := &db.Subscription{
		ProcessorSubscriptionID: invoice.Subscription.ID,
		CustomerID:              customerID,
		Status:                  string(invoice.Status),
		CurrentPeriodEnd:        invoicePeriodEnd(&invoice),
	}
	if err := s.db.CreateSubscription(subscription); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			log.Warnw("stripe webhook: subscription already stored",
				"subscription", invoice.Subscription.ID, "invoice", invoice.ID, "event", event.ID)
			return nil
		}
		if errors.Is(err, db.ErrInvalidData) {
			return NewStripeError(CodeInvalidEvent, "incomplete invoice "+invoice.ID, err)
		}
		return NewStripeError(CodePersistenceFailed, "cannot store subscription "+invoice.Subscription.ID, err)
	}
	log.Infof("stripe webhook: subscription %s of customer %s stored", invoice.Subscription.ID, customerID)
	return nil
}

func (*Service) handleInvoicePaymentFailed(event *stripeapi.Event) error {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return NewStripeError(CodeInvalidEvent, "cannot decode invoice", err)
	}
	subscriptionID := ""
	if invoice.Subscription != nil {
		subscriptionID = invoice.Subscription.ID
	}
	log.Warnw("stripe webhook: invoice payment failed", "invoice", invoice.ID, "subscription", subscriptionID)
	return nil
}

// handleSubscriptionDeleted marks the stored subscription as canceled
func (s *Service) handleSubscriptionDeleted(event *stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return NewStripeError(CodeInvalidEvent, "cannot decode subscription", err)
	}
	if err := s.db.SetSubscriptionStatus(sub.ID, db.SubscriptionStatusCanceled); err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidData) {
			log.Debugf("stripe webhook: subscription %q not stored, nothing to cancel", sub.ID)
			return nil
		}
		return NewStripeError(CodePersistenceFailed, "cannot cancel subscription "+sub.ID, err)
	}
	log.Infof("stripe webhook: subscription %s canceled", sub.ID)
	return nil
}

// invoicePeriodEnd returns the end of the billing period covered by the
// first invoice line, or nil when the invoice carries no lines.
func invoicePeriodEnd(invoice *stripeapi.Invoice) *time.Time {
	if invoice.Lines == nil || len(invoice.Lines.Data) == 0 {
		return nil
	}
	line := invoice.Lines.Data[0]
	if line.Period == nil || line.Period.End == 0 {
		return nil
	}
	end := time.Unix(line.Period.End, 0).UTC()
	return &end
}
