// Package api provides the HTTP API of the checkout backend: the endpoints
// called by the checkout page, the processor webhook and the page itself.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/saas-checkout/api/apicommon"
	"github.com/vocdoni/saas-checkout/stripe"
	"github.com/vocdoni/saas-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// DefaultAllowedOrigin is the origin of the checkout front-end development
// server.
const DefaultAllowedOrigin = "http://localhost:5173"

// Config holds the API server settings and its dependencies.
type Config struct {
	Host string
	Port int
	// AllowedOrigins are the origins allowed by CORS. Defaults to
	// DefaultAllowedOrigin.
	AllowedOrigins []string
	Stripe         *stripe.Service
}

// API type represents the API HTTP server.
type API struct {
	host           string
	port           int
	allowedOrigins []string
	router         *chi.Mux
	server         *http.Server
	stripe         *stripe.Service
	validator      *validator.Validator
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	origins := conf.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{DefaultAllowedOrigin}
	}
	return &API{
		host:           conf.Host,
		port:           conf.Port,
		allowedOrigins: origins,
		stripe:         conf.Stripe,
		validator:      validator.New(),
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.host, a.port),
		Handler:           a.initRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// Shutdown stops the server, waiting for the in-flight requests until ctx
// expires.
func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: a.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	log.Infow("new route", "method", "GET", "path", pingEndpoint)
	r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(".")); err != nil {
			log.Warnw("failed to write ping response", "error", err)
		}
	})
	// checkout page and its settings
	log.Infow("new route", "method", "GET", "path", checkoutPageEndpoint)
	r.Get(checkoutPageEndpoint, a.checkoutPageHandler)
	log.Infow("new route", "method", "GET", "path", checkoutConfigEndpoint)
	r.Get(checkoutConfigEndpoint, a.checkoutConfigHandler)
	// the processor webhook reads the raw body, it must not be validated
	log.Infow("new route", "method", "POST", "path", webhookEndpoint)
	r.Post(webhookEndpoint, a.webhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(a.requireStripe)
		// one-time payment
		log.Infow("new route", "method", "POST", "path", createPaymentIntentEndpoint)
		r.With(a.validateInputModel(apicommon.PaymentIntentRequest{}), a.InputValidator).
			Post(createPaymentIntentEndpoint, a.createPaymentIntentHandler)
		// subscriptions
		log.Infow("new route", "method", "POST", "path", createSubscriptionEndpoint)
		r.With(a.validateInputModel(apicommon.SubscriptionRequest{}), a.InputValidator).
			Post(createSubscriptionEndpoint, a.createSubscriptionHandler)
		log.Infow("new route", "method", "POST", "path", cancelSubscriptionEndpoint)
		r.With(a.validateInputModel(apicommon.CancelSubscriptionRequest{}), a.InputValidator).
			Post(cancelSubscriptionEndpoint, a.cancelSubscriptionHandler)
	})
	a.router = r
	return r
}
