package stripe

import (
	"context"

	"github.com/elevatehq/elevate-api/internal/config"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	stripego "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client defines the Stripe operations the billing pipeline consumes.
type Client interface {
	// VerifyWebhookSignature verifies the signature header against the raw
	// body bytes and returns the parsed event. The body must be the exact
	// bytes received: re-serializing a parsed object breaks verification.
	VerifyWebhookSignature(payload []byte, signatureHeader string) (stripego.Event, error)

	// GetSubscription fetches a subscription by id from the provider API.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
}

type client struct {
	api           *stripeclient.API
	webhookSecret string
	logger        *logger.Logger
}

// NewClient creates a Stripe client from configuration.
func NewClient(cfg *config.Configuration, logger *logger.Logger) Client {
	return &client{
		api:           stripeclient.New(cfg.Stripe.SecretKey, nil),
		webhookSecret: cfg.Stripe.WebhookSecret,
		logger:        logger,
	}
}

func (c *client) VerifyWebhookSignature(payload []byte, signatureHeader string) (stripego.Event, error) {
	if c.webhookSecret == "" {
		return stripego.Event{}, ierr.NewError("stripe webhook secret is not configured").
			WithHint("Set STRIPE_WEBHOOK_SECRET").
			Mark(ierr.ErrSystem)
	}
	if signatureHeader == "" {
		return stripego.Event{}, ierr.NewError("missing webhook signature header").
			WithHint("Stripe-Signature header is required").
			Mark(ierr.ErrValidation)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret,
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

func (c *client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripego.SubscriptionParams{
		Params: stripego.Params{Context: ctx},
	}
	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch subscription from Stripe").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Debugw("fetched subscription from stripe",
		"subscription_id", sub.ID,
		"status", sub.Status,
	)

	return fromAPISubscription(sub), nil
}

// fromAPISubscription converts the SDK's subscription into the payload shape
// the reconciler works with. The current API version carries period bounds on
// the line items only, so the top-level bounds stay zero here and the
// reconciler's item-level fallback resolves them.
func fromAPISubscription(sub *stripego.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		Metadata:          sub.Metadata,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CancelAt:          sub.CancelAt,
		CanceledAt:        sub.CanceledAt,
		TrialStart:        sub.TrialStart,
		TrialEnd:          sub.TrialEnd,
	}
	if sub.Customer != nil {
		out.Customer = sub.Customer.ID
	}
	if sub.Items == nil {
		return out
	}
	for _, item := range sub.Items.Data {
		converted := SubscriptionItem{
			ID:                 item.ID,
			CurrentPeriodStart: item.CurrentPeriodStart,
			CurrentPeriodEnd:   item.CurrentPeriodEnd,
		}
		if item.Price != nil {
			converted.Price = Price{ID: item.Price.ID}
			if item.Price.Recurring != nil {
				converted.Price.Recurring = &Recurring{Interval: string(item.Price.Recurring.Interval)}
			}
		}
		out.Items.Data = append(out.Items.Data, converted)
	}
	return out
}
