package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
	"github.com/vocdoni/saas-checkout/db"
)

const testWebhookSecret = "whsec_test_secret"

func testConfig() *Config {
	return &Config{
		APIKey:        "sk_test_fake",
		WebhookSecret: testWebhookSecret,
		PriceID:       "price_default",
		AckOnFailure:  true,
	}
}

// fakeProcessor answers the API calls locally and uses the real Client for
// the webhook signature checks.
type fakeProcessor struct {
	*Client

	mu       sync.Mutex
	intents  []*stripeapi.PaymentIntent
	canceled map[string]int
}

func newFakeProcessor(conf *Config) *fakeProcessor {
	return &fakeProcessor{
		Client:   NewClient(conf),
		canceled: make(map[string]int),
	}
}

func (f *fakeProcessor) CreatePaymentIntent(amount int64, currency string) (*stripeapi.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("pi_%d", len(f.intents)+1)
	intent := &stripeapi.PaymentIntent{
		ID:           id,
		Amount:       amount,
		Currency:     stripeapi.Currency(currency),
		ClientSecret: id + "_secret_test",
		Status:       stripeapi.PaymentIntentStatusRequiresPaymentMethod,
	}
	f.intents = append(f.intents, intent)
	return intent, nil
}

func (*fakeProcessor) CreateCustomer(email, _ string) (*stripeapi.Customer, error) {
	if !strings.Contains(email, "@") {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create customer", fmt.Errorf("invalid email"))
	}
	return &stripeapi.Customer{ID: "cus_1", Email: email}, nil
}

func (*fakeProcessor) CreateSubscription(customerID, priceID string) (*stripeapi.Subscription, error) {
	return &stripeapi.Subscription{
		ID:       "sub_" + priceID,
		Customer: &stripeapi.Customer{ID: customerID},
		LatestInvoice: &stripeapi.Invoice{
			ID:            "in_1",
			PaymentIntent: &stripeapi.PaymentIntent{ID: "pi_sub", ClientSecret: "pi_sub_secret_test"},
		},
	}, nil
}

func (f *fakeProcessor) CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled[subscriptionID]++
	return &stripeapi.Subscription{
		ID:                subscriptionID,
		CancelAtPeriodEnd: true,
		Status:            stripeapi.SubscriptionStatusActive,
	}, nil
}

// memStorage is an in-memory db.Storage. failWith, when set, is returned by
// every write.
type memStorage struct {
	mu            sync.Mutex
	payments      map[string]*db.Payment
	subscriptions map[string]*db.Subscription
	failWith      error
}

func newMemStorage() *memStorage {
	return &memStorage{
		payments:      make(map[string]*db.Payment),
		subscriptions: make(map[string]*db.Subscription),
	}
}

func (m *memStorage) CreatePayment(p *db.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := m.payments[p.ProcessorPaymentID]; ok {
		return db.ErrAlreadyExists
	}
	copied := *p
	m.payments[p.ProcessorPaymentID] = &copied
	return nil
}

func (m *memStorage) Payment(id string) (*db.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (m *memStorage) CreateSubscription(s *db.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := m.subscriptions[s.ProcessorSubscriptionID]; ok {
		return db.ErrAlreadyExists
	}
	copied := *s
	m.subscriptions[s.ProcessorSubscriptionID] = &copied
	return nil
}

func (m *memStorage) Subscription(id string) (*db.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return s, nil
}

func (m *memStorage) SetSubscriptionStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	s, ok := m.subscriptions[id]
	if !ok {
		return db.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *memStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = make(map[string]*db.Payment)
	m.subscriptions = make(map[string]*db.Subscription)
	return nil
}

func (*memStorage) Close() {}

func (m *memStorage) counts() (payments, subscriptions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments), len(m.subscriptions)
}

// signedEvent builds a webhook payload for the given event and signs it with
// testWebhookSecret.
func signedEvent(c *qt.C, id string, eventType stripeapi.EventType, object map[string]any) (payload []byte, header string) {
	raw, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripeapi.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	c.Assert(err, qt.IsNil)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   raw,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func paymentIntentObject(id string, amount int64) map[string]any {
	return map[string]any{
		"id":       id,
		"object":   "payment_intent",
		"amount":   amount,
		"currency": "usd",
		"status":   "succeeded",
	}
}

func invoiceObject(id, subscriptionID string, periodEnd int64) map[string]any {
	return map[string]any{
		"id":           id,
		"object":       "invoice",
		"customer":     "cus_1",
		"subscription": subscriptionID,
		"status":       "paid",
		"lines": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":     "il_" + id,
				"object": "line_item",
				"period": map[string]any{"start": periodEnd - 30*24*3600, "end": periodEnd},
			}},
		},
	}
}
