package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
	"github.com/vocdoni/saas-checkout/db/mongo"
	"github.com/vocdoni/saas-checkout/stripe"
	"github.com/vocdoni/saas-checkout/test"
)

const (
	testHost          = "0.0.0.0"
	testPort          = 7788
	testWebhookSecret = "whsec_test_secret"
	testOrigin        = "http://localhost:5173"
)

var (
	testDB        *mongo.MongoStorage
	testProcessor *fakeProcessor
)

// fakeProcessor answers the processor API calls locally and checks the
// webhook signatures with the real client.
type fakeProcessor struct {
	*stripe.Client

	mu           sync.Mutex
	lastAmount   int64
	lastCurrency string
	cancels      map[string]int
}

func (f *fakeProcessor) CreatePaymentIntent(amount int64, currency string) (*stripeapi.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAmount, f.lastCurrency = amount, currency
	return &stripeapi.PaymentIntent{
		ID:           "pi_test",
		Amount:       amount,
		Currency:     stripeapi.Currency(currency),
		ClientSecret: "pi_test_secret_abc",
	}, nil
}

func (*fakeProcessor) CreateCustomer(email, _ string) (*stripeapi.Customer, error) {
	return &stripeapi.Customer{ID: "cus_test", Email: email}, nil
}

func (*fakeProcessor) CreateSubscription(customerID, priceID string) (*stripeapi.Subscription, error) {
	return &stripeapi.Subscription{
		ID:       "sub_" + priceID,
		Customer: &stripeapi.Customer{ID: customerID},
		LatestInvoice: &stripeapi.Invoice{
			PaymentIntent: &stripeapi.PaymentIntent{ClientSecret: "pi_sub_secret_abc"},
		},
	}, nil
}

func (f *fakeProcessor) CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels[subscriptionID]++
	return &stripeapi.Subscription{
		ID:                subscriptionID,
		Object:            "subscription",
		CancelAtPeriodEnd: true,
		Status:            stripeapi.SubscriptionStatusActive,
	}, nil
}

func (f *fakeProcessor) charged() (int64, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAmount, f.lastCurrency
}

func testURL(path string) string {
	return fmt.Sprintf("http://%s:%d%s", testHost, testPort, path)
}

func mustMarshal(i any) []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return b
}

func pingAPI(endpoint string, retries int) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	var pingErr error
	for i := 0; i < retries; i++ {
		var resp *http.Response
		if resp, pingErr = http.DefaultClient.Do(req); pingErr == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			pingErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		time.Sleep(time.Second)
	}
	return pingErr
}

// doRequest sends the request to the test server and returns the status and
// the response body.
func doRequest(method, path string, body []byte, headers map[string]string) (int, []byte, http.Header) {
	req, err := http.NewRequest(method, testURL(path), bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}
	return resp.StatusCode, data, resp.Header
}

// signedEvent returns a webhook payload for the event and its signature
// header.
func signedEvent(id string, eventType stripeapi.EventType, object map[string]any) ([]byte, string) {
	payload := mustMarshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripeapi.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestMain(m *testing.M) {
	ctx := context.Background()
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(err)
	}
	mongoURI, err := dbContainer.Endpoint(ctx, "mongodb")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv(mongo.ResetDBEnv, "true")
	if testDB, err = mongo.New(mongoURI, test.RandomDatabaseName()); err != nil {
		panic(err)
	}

	conf := &stripe.Config{
		APIKey:         "sk_test_fake",
		WebhookSecret:  testWebhookSecret,
		PublishableKey: "pk_test_fake",
		PriceID:        "price_default",
		AckOnFailure:   true,
	}
	testProcessor = &fakeProcessor{
		Client:  stripe.NewClient(conf),
		cancels: make(map[string]int),
	}
	events := stripe.NewMemoryEventStore(time.Hour)
	service, err := stripe.NewService(conf, testProcessor, testDB, events)
	if err != nil {
		panic(err)
	}
	api := New(&Config{
		Host:           testHost,
		Port:           testPort,
		AllowedOrigins: []string{testOrigin},
		Stripe:         service,
	})
	api.Start()
	if err := pingAPI(testURL(pingEndpoint), 5); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = api.Shutdown(ctx)
	events.Close()
	testDB.Close()
	_ = dbContainer.Terminate(ctx)
	os.Exit(code)
}
