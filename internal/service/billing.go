package service

import (
	"context"
	"encoding/json"
	"time"

	domainSub "github.com/elevatehq/elevate-api/internal/domain/subscription"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	stripedto "github.com/elevatehq/elevate-api/internal/integration/stripe"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	stripego "github.com/stripe/stripe-go/v82"
)

// BillingService owns the webhook reconciliation pipeline: it maps provider
// subscription objects into the canonical local subscription record and runs
// the derived effects that follow from each state change.
type BillingService interface {
	// ProcessEvent dispatches a verified webhook event to its handler.
	// Unknown event types are logged and acknowledged as a no-op.
	ProcessEvent(ctx context.Context, event *stripego.Event) error

	// SyncSubscription reconciles one provider subscription object into the
	// local record. customerID is the provider customer the subscription
	// belongs to.
	SyncSubscription(ctx context.Context, sub *stripedto.Subscription, customerID string) error

	// UnpublishIfIneligible flips a published portfolio to unpublished when
	// (plan, status) no longer qualifies for portfolio hosting. Never
	// returns an error: all failures are logged and swallowed.
	UnpublishIfIneligible(ctx context.Context, userID string, plan types.PlanType, status types.SubscriptionStatus)

	// WaitForBackground blocks until detached background effects finish.
	// Used on shutdown and by tests; the webhook path never calls it.
	WaitForBackground()
}

type billingService struct {
	ServiceParams
	plan PlanService
	bg   *conc.WaitGroup
}

// NewBillingService creates the billing reconciliation service.
func NewBillingService(params ServiceParams, plan PlanService) BillingService {
	return &billingService{
		ServiceParams: params,
		plan:          plan,
		bg:            conc.NewWaitGroup(),
	}
}

func (s *billingService) ProcessEvent(ctx context.Context, event *stripego.Event) error {
	log := s.Logger.WithContext(ctx)

	switch event.Type {
	case stripego.EventTypeCheckoutSessionCompleted:
		var session stripedto.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return ierr.WithError(err).
				WithHint("Malformed checkout session payload").
				Mark(ierr.ErrValidation)
		}
		if session.Subscription == "" {
			log.Infow("checkout session has no subscription, skipping",
				"session_id", session.ID,
			)
			return nil
		}
		sub, err := s.StripeClient.GetSubscription(ctx, session.Subscription)
		if err != nil {
			return err
		}
		return s.SyncSubscription(ctx, sub, session.Customer)

	case stripego.EventTypeCustomerSubscriptionCreated, stripego.EventTypeCustomerSubscriptionUpdated:
		var sub stripedto.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ierr.WithError(err).
				WithHint("Malformed subscription payload").
				Mark(ierr.ErrValidation)
		}
		return s.SyncSubscription(ctx, &sub, sub.Customer)

	case stripego.EventTypeCustomerSubscriptionDeleted:
		var sub stripedto.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ierr.WithError(err).
				WithHint("Malformed subscription payload").
				Mark(ierr.ErrValidation)
		}
		return s.handleSubscriptionDeleted(ctx, &sub)

	case stripego.EventTypeInvoicePaymentSucceeded:
		var inv stripedto.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return ierr.WithError(err).
				WithHint("Malformed invoice payload").
				Mark(ierr.ErrValidation)
		}
		subID := inv.SubscriptionID()
		if subID == "" {
			log.Infow("invoice has no subscription, skipping", "invoice_id", inv.ID)
			return nil
		}
		sub, err := s.StripeClient.GetSubscription(ctx, subID)
		if err != nil {
			return err
		}
		return s.SyncSubscription(ctx, sub, inv.Customer)

	case stripego.EventTypeInvoicePaymentFailed:
		var inv stripedto.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return ierr.WithError(err).
				WithHint("Malformed invoice payload").
				Mark(ierr.ErrValidation)
		}
		return s.handlePaymentFailed(ctx, &inv)

	default:
		log.Infow("ignoring unhandled event type",
			"event_type", event.Type,
			"event_id", event.ID,
		)
		return nil
	}
}

func (s *billingService) SyncSubscription(ctx context.Context, sub *stripedto.Subscription, customerID string) error {
	log := s.Logger.WithContext(ctx)

	// Missing user metadata is a data-integrity signal, not a transient
	// error: a redelivery would carry the same payload, so there is nothing
	// to gain from failing the webhook.
	userID := sub.UserID()
	if userID == "" {
		log.Errorw("subscription has no user_id metadata, skipping sync",
			"subscription_id", sub.ID,
			"customer_id", customerID,
		)
		return nil
	}

	plan, cadence, known := s.plan.Resolve(sub.PrimaryPriceID(), sub.RecurringInterval())
	if !known {
		log.Warnw("subscription price not in catalog, syncing with plan=none",
			"subscription_id", sub.ID,
			"price_id", sub.PrimaryPriceID(),
		)
	}

	status := types.ParseSubscriptionStatus(sub.Status)

	prev, err := s.SubRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		return err
	}
	isUpgradeFromTrial := prev != nil &&
		prev.Status == types.SubscriptionStatusTrialing &&
		status == types.SubscriptionStatusActive

	// The one fatal-on-missing-data path: period dates are required by every
	// downstream check, and the provider may fill them on redelivery.
	periodStart, periodEnd, err := sub.PeriodBounds()
	if err != nil {
		return err
	}

	record := &domainSub.Subscription{
		UserID:                 userID,
		ProviderCustomerID:     customerID,
		ProviderSubscriptionID: sub.ID,
		Plan:                   plan,
		BillingCadence:         cadence,
		Status:                 status,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
		CancelAtPeriodEnd:      types.DeriveCancelAtPeriodEnd(sub.CancelAtPeriodEnd, stripedto.UnixOrNil(sub.CancelAt), periodEnd),
		CanceledAt:             stripedto.UnixOrNil(sub.CanceledAt),
		TrialStart:             stripedto.UnixOrNil(sub.TrialStart),
		TrialEnd:               stripedto.UnixOrNil(sub.TrialEnd),
		ProviderPriceID:        sub.PrimaryPriceID(),
	}

	if err := s.SubRepo.Upsert(ctx, record); err != nil {
		// Unrecoverable persistence failure: propagate so the endpoint
		// returns 5xx and the provider redelivers. Replays are safe, the
		// upsert is idempotent.
		return err
	}

	log.Infow("synced subscription",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan", plan,
		"status", status,
		"upgrade_from_trial", isUpgradeFromTrial,
	)

	s.dispatchEffects(ctx, record, isUpgradeFromTrial)
	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, sub *stripedto.Subscription) error {
	log := s.Logger.WithContext(ctx)

	existing, err := s.SubRepo.GetByProviderSubscriptionID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		log.Warnw("deletion event for unknown subscription, skipping",
			"subscription_id", sub.ID,
		)
		return nil
	}

	now := time.Now().UTC()
	if err := s.SubRepo.UpdateStatus(ctx, sub.ID, types.SubscriptionStatusCanceled, &now); err != nil {
		return err
	}

	log.Infow("subscription canceled",
		"user_id", existing.UserID,
		"subscription_id", sub.ID,
	)

	// The subscription is gone: the user is on no plan for gating purposes.
	s.UnpublishIfIneligible(ctx, existing.UserID, types.PlanTypeNone, types.SubscriptionStatusCanceled)
	return nil
}

func (s *billingService) handlePaymentFailed(ctx context.Context, inv *stripedto.Invoice) error {
	log := s.Logger.WithContext(ctx)

	subID := inv.SubscriptionID()
	if subID == "" {
		log.Infow("failed invoice has no subscription, skipping", "invoice_id", inv.ID)
		return nil
	}

	existing, err := s.SubRepo.GetByProviderSubscriptionID(ctx, subID)
	if err != nil {
		return err
	}
	if existing == nil {
		log.Warnw("payment failure for unknown subscription, skipping",
			"subscription_id", subID,
		)
		return nil
	}

	if err := s.SubRepo.UpdateStatus(ctx, subID, types.SubscriptionStatusPastDue, nil); err != nil {
		return err
	}

	amountDue := decimal.NewFromInt(inv.AmountDue).Div(decimal.NewFromInt(100))
	log.Warnw("subscription past due after failed payment",
		"user_id", existing.UserID,
		"subscription_id", subID,
		"invoice_id", inv.ID,
		"amount_due", amountDue.String(),
		"currency", inv.Currency,
	)

	// Gate with the last known plan: past_due is ineligible regardless.
	s.UnpublishIfIneligible(ctx, existing.UserID, existing.Plan, types.SubscriptionStatusPastDue)
	return nil
}

func (s *billingService) WaitForBackground() {
	s.bg.Wait()
}
