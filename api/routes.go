package api

const (
	// GET /ping to check the server is up
	pingEndpoint = "/ping"

	// checkout page routes

	// GET / to get the checkout page
	checkoutPageEndpoint = "/"
	// GET /config to get the public settings used by the checkout page
	checkoutConfigEndpoint = "/config"

	// payment routes

	// POST /create-payment-intent to create a one-time payment intent
	createPaymentIntentEndpoint = "/create-payment-intent"
	// POST /create-subscription to create a customer and its subscription
	createSubscriptionEndpoint = "/create-subscription"
	// POST /cancel-subscription to cancel a subscription at the end of its period
	cancelSubscriptionEndpoint = "/cancel-subscription"

	// POST /webhooks to receive the payment processor notifications
	webhookEndpoint = "/webhooks"
)
