package main

import (
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v81"
	stripepaymentintent "github.com/stripe/stripe-go/v81/paymentintent"
	stripepaymentmethod "github.com/stripe/stripe-go/v81/paymentmethod"
)

// stripeConfirmer plays the part of the card form with a Stripe test card
// token, using the secret key of a test mode account.
type stripeConfirmer struct {
	cardToken     string
	paymentMethod string
}

func newStripeConfirmer(secretKey, cardToken string) *stripeConfirmer {
	stripeapi.Key = secretKey
	return &stripeConfirmer{cardToken: cardToken}
}

// CreatePaymentMethod creates a card payment method from the test token.
func (s *stripeConfirmer) CreatePaymentMethod(email string) (string, error) {
	params := &stripeapi.PaymentMethodParams{
		Type: stripeapi.String(string(stripeapi.PaymentMethodTypeCard)),
		Card: &stripeapi.PaymentMethodCardParams{
			Token: stripeapi.String(s.cardToken),
		},
	}
	if email != "" {
		params.BillingDetails = &stripeapi.PaymentMethodBillingDetailsParams{
			Email: stripeapi.String(email),
		}
	}
	pm, err := stripepaymentmethod.New(params)
	if err != nil {
		return "", err
	}
	s.paymentMethod = pm.ID
	return pm.ID, nil
}

// ConfirmCardPayment confirms the payment intent the client secret belongs
// to, with the last payment method created or a new one.
func (s *stripeConfirmer) ConfirmCardPayment(clientSecret string) (string, error) {
	intentID, _, found := strings.Cut(clientSecret, "_secret_")
	if !found || intentID == "" {
		return "", fmt.Errorf("malformed client secret")
	}
	if s.paymentMethod == "" {
		if _, err := s.CreatePaymentMethod(""); err != nil {
			return "", err
		}
	}
	intent, err := stripepaymentintent.Confirm(intentID, &stripeapi.PaymentIntentConfirmParams{
		PaymentMethod: stripeapi.String(s.paymentMethod),
	})
	if err != nil {
		return "", err
	}
	return string(intent.Status), nil
}
