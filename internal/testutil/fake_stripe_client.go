package testutil

import (
	"context"
	"sync"

	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/integration/stripe"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// FakeStripeClient implements stripe.Client for tests. Signature verification
// uses the real webhook verifier against WebhookSecret so signed test payloads
// behave exactly as in production; API fetches are served from a local map.
type FakeStripeClient struct {
	WebhookSecret string

	mu            sync.RWMutex
	subscriptions map[string]*stripe.Subscription
}

func NewFakeStripeClient(webhookSecret string) *FakeStripeClient {
	return &FakeStripeClient{
		WebhookSecret: webhookSecret,
		subscriptions: make(map[string]*stripe.Subscription),
	}
}

// SetSubscription registers a subscription served by GetSubscription.
func (c *FakeStripeClient) SetSubscription(sub *stripe.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[sub.ID] = sub
}

func (c *FakeStripeClient) VerifyWebhookSignature(payload []byte, signatureHeader string) (stripego.Event, error) {
	if signatureHeader == "" {
		return stripego.Event{}, ierr.NewError("missing webhook signature header").
			Mark(ierr.ErrValidation)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.WebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return stripego.Event{}, ierr.WithError(err).
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrValidation)
	}
	return event, nil
}

func (c *FakeStripeClient) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sub, ok := c.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewErrorf("no such subscription: %s", subscriptionID).
			Mark(ierr.ErrHTTPClient)
	}
	return sub, nil
}
