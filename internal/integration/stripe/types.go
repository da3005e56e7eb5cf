package stripe

import (
	"time"

	ierr "github.com/elevatehq/elevate-api/internal/errors"
)

// Subscription is the provider subscription payload as delivered in webhook
// events. It is decoded from the raw event JSON rather than the SDK's typed
// struct because the two billing modes the provider runs put the current
// period bounds in different places: classic subscriptions carry them at the
// top level, flexible (item-level) billing carries them on each line item.
// Both shapes must be readable from the same payload.
type Subscription struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	Metadata           map[string]string `json:"metadata"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CancelAt           int64             `json:"cancel_at"`
	CanceledAt         int64             `json:"canceled_at"`
	TrialStart         int64             `json:"trial_start"`
	TrialEnd           int64             `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Items              SubscriptionItems `json:"items"`
}

type SubscriptionItems struct {
	Data []SubscriptionItem `json:"data"`
}

type SubscriptionItem struct {
	ID                 string `json:"id"`
	Price              Price  `json:"price"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

type Price struct {
	ID        string     `json:"id"`
	Recurring *Recurring `json:"recurring"`
}

type Recurring struct {
	Interval string `json:"interval"`
}

// UserID returns the owning user id carried in the subscription metadata.
func (s *Subscription) UserID() string {
	return s.Metadata["user_id"]
}

// PrimaryPriceID returns the price id of the first line item.
func (s *Subscription) PrimaryPriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// RecurringInterval returns the provider recurring interval of the first line
// item, or "" when absent.
func (s *Subscription) RecurringInterval() string {
	if len(s.Items.Data) == 0 || s.Items.Data[0].Price.Recurring == nil {
		return ""
	}
	return s.Items.Data[0].Price.Recurring.Interval
}

// PeriodBounds resolves the current period. Subscription-level fields win;
// when absent the first line item's bounds are used. If neither shape carries
// the bounds the sync must fail: period dates are required by every
// downstream correctness check, and the omission may be a transient
// provider-side gap that a redelivery will fill.
func (s *Subscription) PeriodBounds() (time.Time, time.Time, error) {
	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if (start == 0 || end == 0) && len(s.Items.Data) > 0 {
		start, end = s.Items.Data[0].CurrentPeriodStart, s.Items.Data[0].CurrentPeriodEnd
	}
	if start == 0 || end == 0 {
		return time.Time{}, time.Time{}, ierr.NewError("subscription has no resolvable billing period").
			WithHint("Neither subscription-level nor item-level period dates are present").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": s.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	return time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC(), nil
}

// UnixOrNil converts a provider epoch-seconds field to a nullable time.
func UnixOrNil(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// CheckoutSession is the slice of the checkout.session.completed payload the
// pipeline needs.
type CheckoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Invoice is the slice of the invoice.* payloads the pipeline needs. The
// subscription reference moved under parent.subscription_details in newer
// API versions; both locations are read.
type Invoice struct {
	ID           string         `json:"id"`
	Customer     string         `json:"customer"`
	Subscription string         `json:"subscription"`
	AmountDue    int64          `json:"amount_due"`
	Currency     string         `json:"currency"`
	Parent       *InvoiceParent `json:"parent"`
}

type InvoiceParent struct {
	SubscriptionDetails *SubscriptionDetails `json:"subscription_details"`
}

type SubscriptionDetails struct {
	Subscription string `json:"subscription"`
}

// SubscriptionID returns the subscription the invoice bills, checking both
// payload shapes.
func (i *Invoice) SubscriptionID() string {
	if i.Subscription != "" {
		return i.Subscription
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return i.Parent.SubscriptionDetails.Subscription
	}
	return ""
}
