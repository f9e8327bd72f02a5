package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeRetriever resolves payment intents through the Stripe API.
type StripeRetriever struct {
	api *client.API
}

// NewStripeRetriever builds a retriever with its own API client; no
// package-global Stripe state is touched.
func NewStripeRetriever(secretKey string) *StripeRetriever {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeRetriever{api: api}
}

// Intent fetches the payment intent and maps it to the provider-neutral
// shape.
func (s *StripeRetriever) Intent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}

	intent := &Intent{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}
	if pi.LatestCharge != nil {
		intent.ChargeID = pi.LatestCharge.ID
	}
	return intent, nil
}
