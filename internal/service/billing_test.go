package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/elevatehq/elevate-api/internal/cache"
	"github.com/elevatehq/elevate-api/internal/config"
	"github.com/elevatehq/elevate-api/internal/domain/portfolio"
	"github.com/elevatehq/elevate-api/internal/domain/user"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/integration/convertkit"
	stripedto "github.com/elevatehq/elevate-api/internal/integration/stripe"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/testutil"
	"github.com/elevatehq/elevate-api/internal/types"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/suite"
)

const (
	testUserID     = "user-1"
	testCustomerID = "cus_1"
	periodStart    = int64(1767225600)
	periodEnd      = int64(1769904000)
)

type BillingServiceSuite struct {
	suite.Suite
	ctx context.Context

	subStore       *testutil.InMemorySubscriptionStore
	eventStore     *testutil.InMemoryWebhookEventStore
	portfolioStore *testutil.InMemoryPortfolioStore
	userStore      *testutil.InMemoryUserStore
	stripeClient   *testutil.FakeStripeClient
	ck             *testutil.FakeConvertKitClient

	billing BillingService
}

func TestBillingServiceSuite(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.ctx = context.Background()

	cfg := config.GetDefaultConfig()
	cfg.Stripe.Prices = map[string]config.PlanPrice{
		"price_learn_monthly": {Plan: types.PlanTypeLearn, Cadence: types.BillingCadenceMonthly},
		"price_accel_monthly": {Plan: types.PlanTypeAccelerate, Cadence: types.BillingCadenceMonthly},
		"price_accel_annual":  {Plan: types.PlanTypeAccelerate, Cadence: types.BillingCadenceAnnual},
	}
	cfg.ConvertKit.Tags = map[string]string{
		"learn":      "10001",
		"accelerate": "10002",
	}
	cfg.ConvertKit.TrialSequence = "Trial Nurture"

	log, err := logger.NewLogger(cfg)
	s.Require().NoError(err)

	s.subStore = testutil.NewInMemorySubscriptionStore()
	s.eventStore = testutil.NewInMemoryWebhookEventStore()
	s.portfolioStore = testutil.NewInMemoryPortfolioStore()
	s.userStore = testutil.NewInMemoryUserStore()
	s.stripeClient = testutil.NewFakeStripeClient("whsec_test")
	s.ck = testutil.NewFakeConvertKitClient()
	s.ck.Sequences = []convertkit.Sequence{
		{ID: 555, Name: "Welcome"},
		{ID: 777, Name: "Trial Nurture"},
	}

	s.userStore.Seed(&user.Profile{ID: testUserID, Email: "jordan@example.com"})

	params := ServiceParams{
		Logger:           log,
		Config:           cfg,
		Cache:            cache.NewInMemoryCache(cfg),
		SubRepo:          s.subStore,
		WebhookEventRepo: s.eventStore,
		PortfolioRepo:    s.portfolioStore,
		UserRepo:         s.userStore,
		StripeClient:     s.stripeClient,
		ConvertKit:       s.ck,
	}
	s.billing = NewBillingService(params, NewPlanService(params))
}

func subscriptionPayload(subID, priceID, status string, opts map[string]interface{}) json.RawMessage {
	payload := map[string]interface{}{
		"id":       subID,
		"customer": testCustomerID,
		"status":   status,
		"metadata": map[string]string{"user_id": testUserID},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id": "si_1",
					"price": map[string]interface{}{
						"id":        priceID,
						"recurring": map[string]string{"interval": "month"},
					},
					"current_period_start": periodStart,
					"current_period_end":   periodEnd,
				},
			},
		},
	}
	for k, v := range opts {
		payload[k] = v
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func subscriptionEvent(eventType stripego.EventType, raw json.RawMessage) *stripego.Event {
	return &stripego.Event{
		ID:   "evt_" + types.GenerateUUID(),
		Type: eventType,
		Data: &stripego.EventData{Raw: raw},
	}
}

func (s *BillingServiceSuite) TestSubscriptionCreatedSyncsRecord() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(testUserID, stored.UserID)
	s.Equal(testCustomerID, stored.ProviderCustomerID)
	s.Equal(types.PlanTypeAccelerate, stored.Plan)
	s.Equal(types.BillingCadenceMonthly, stored.BillingCadence)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
	s.Equal(periodStart, stored.CurrentPeriodStart.Unix())
	s.Equal(periodEnd, stored.CurrentPeriodEnd.Unix())
	s.False(stored.CancelAtPeriodEnd)
}

func (s *BillingServiceSuite) TestReplayIsIdempotent() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", nil))

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	s.Equal(1, s.subStore.Count())
}

func (s *BillingServiceSuite) TestMissingUserMetadataIsNoOp() {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":       "sub_1",
		"customer": testCustomerID,
		"status":   "active",
	})
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated, raw)

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))
	s.Equal(0, s.subStore.Count())
}

func (s *BillingServiceSuite) TestUnknownPriceDegradesToPlanNone() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_unknown", "active", nil))

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(types.PlanTypeNone, stored.Plan)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
}

func (s *BillingServiceSuite) TestMissingPeriodsFailsWithoutWrite() {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":       "sub_1",
		"customer": testCustomerID,
		"status":   "active",
		"metadata": map[string]string{"user_id": testUserID},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "si_1", "price": map[string]interface{}{"id": "price_learn_monthly"}},
			},
		},
	})
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated, raw)

	err := s.billing.ProcessEvent(s.ctx, event)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.subStore.Count())
}

func (s *BillingServiceSuite) TestSubscriptionLevelPeriodsWin() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", map[string]interface{}{
			"current_period_start": periodStart - 500,
			"current_period_end":   periodEnd - 500,
		}))

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(periodStart-500, stored.CurrentPeriodStart.Unix())
	s.Equal(periodEnd-500, stored.CurrentPeriodEnd.Unix())
}

func (s *BillingServiceSuite) TestNewSubscriptionReplacesOldForSamePair() {
	first := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_trial", "price_accel_monthly", "trialing", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, first))

	second := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_paid", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, second))

	s.Equal(1, s.subStore.Count())

	old, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_trial")
	s.Require().NoError(err)
	s.Nil(old)

	current, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_paid")
	s.Require().NoError(err)
	s.Require().NotNil(current)
	s.Equal(types.SubscriptionStatusActive, current.Status)
}

func (s *BillingServiceSuite) TestCancelAtNearPeriodEndSetsFlag() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", map[string]interface{}{
			"cancel_at_period_end": false,
			"cancel_at":            periodEnd - 3600,
		}))

	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.True(stored.CancelAtPeriodEnd)
}

func (s *BillingServiceSuite) TestTrialUpgradeCancelsNurtureSequence() {
	trial := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_accel_monthly", "trialing", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, trial))

	paid := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, paid))

	s.billing.WaitForBackground()

	calls := s.ck.CancelCalls()
	s.Require().Len(calls, 1)
	s.Equal("jordan@example.com", calls[0].Email)
	s.Equal(int64(777), calls[0].SequenceID)
}

func (s *BillingServiceSuite) TestNoSequenceCancelWithoutUpgrade() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	s.billing.WaitForBackground()
	s.Empty(s.ck.CancelCalls())
}

func (s *BillingServiceSuite) TestEntitledPaidPlanAppliesMarketingTag() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	calls := s.ck.TagCalls()
	s.Require().Len(calls, 1)
	s.Equal("10001", calls[0].TagID)
	s.Equal("jordan@example.com", calls[0].Email)
}

func (s *BillingServiceSuite) TestPastDueAppliesNoMarketingTag() {
	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_learn_monthly", "past_due", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	s.Empty(s.ck.TagCalls())
}

func (s *BillingServiceSuite) TestMarketingFailureDoesNotFailSync() {
	s.ck.TagErr = fmt.Errorf("convertkit is down")

	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))
	s.Equal(1, s.subStore.Count())
}

func (s *BillingServiceSuite) TestIneligibleSyncUnpublishesPortfolio() {
	s.portfolioStore.Seed(&portfolio.Portfolio{
		ID: "pfl_1", UserID: testUserID, Slug: "jordan", IsPublished: true,
	})

	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_learn_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	pf, err := s.portfolioStore.GetByUserID(s.ctx, testUserID)
	s.Require().NoError(err)
	s.Require().NotNil(pf)
	s.False(pf.IsPublished)
}

func (s *BillingServiceSuite) TestEligibleSyncKeepsPortfolioPublished() {
	s.portfolioStore.Seed(&portfolio.Portfolio{
		ID: "pfl_1", UserID: testUserID, Slug: "jordan", IsPublished: true,
	})

	event := subscriptionEvent(stripego.EventTypeCustomerSubscriptionUpdated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	pf, err := s.portfolioStore.GetByUserID(s.ctx, testUserID)
	s.Require().NoError(err)
	s.Require().NotNil(pf)
	s.True(pf.IsPublished)
}

func (s *BillingServiceSuite) TestSubscriptionDeletedCancelsAndUnpublishes() {
	s.portfolioStore.Seed(&portfolio.Portfolio{
		ID: "pfl_1", UserID: testUserID, Slug: "jordan", IsPublished: true,
	})

	create := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, create))

	deleted := subscriptionEvent(stripego.EventTypeCustomerSubscriptionDeleted,
		subscriptionPayload("sub_1", "price_accel_monthly", "canceled", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, deleted))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(types.SubscriptionStatusCanceled, stored.Status)
	s.NotNil(stored.CanceledAt)

	pf, err := s.portfolioStore.GetByUserID(s.ctx, testUserID)
	s.Require().NoError(err)
	s.False(pf.IsPublished)
}

func (s *BillingServiceSuite) TestDeletedEventForUnknownSubscriptionIsNoOp() {
	deleted := subscriptionEvent(stripego.EventTypeCustomerSubscriptionDeleted,
		subscriptionPayload("sub_missing", "price_accel_monthly", "canceled", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, deleted))
}

func (s *BillingServiceSuite) TestInvoicePaymentFailedMarksPastDue() {
	s.portfolioStore.Seed(&portfolio.Portfolio{
		ID: "pfl_1", UserID: testUserID, Slug: "jordan", IsPublished: true,
	})

	create := subscriptionEvent(stripego.EventTypeCustomerSubscriptionCreated,
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil))
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, create))

	raw, _ := json.Marshal(map[string]interface{}{
		"id":           "in_1",
		"customer":     testCustomerID,
		"subscription": "sub_1",
		"amount_due":   4900,
		"currency":     "usd",
	})
	failed := subscriptionEvent(stripego.EventTypeInvoicePaymentFailed, raw)
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, failed))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, stored.Status)

	pf, err := s.portfolioStore.GetByUserID(s.ctx, testUserID)
	s.Require().NoError(err)
	s.False(pf.IsPublished)
}

func (s *BillingServiceSuite) TestInvoicePaymentSucceededRefetchesSubscription() {
	var fetched stripedto.Subscription
	s.Require().NoError(json.Unmarshal(
		subscriptionPayload("sub_1", "price_accel_monthly", "active", nil), &fetched))
	s.stripeClient.SetSubscription(&fetched)

	raw, _ := json.Marshal(map[string]interface{}{
		"id":       "in_1",
		"customer": testCustomerID,
		"parent": map[string]interface{}{
			"subscription_details": map[string]string{"subscription": "sub_1"},
		},
	})
	event := subscriptionEvent(stripego.EventTypeInvoicePaymentSucceeded, raw)
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
}

func (s *BillingServiceSuite) TestCheckoutCompletedFetchesAndSyncs() {
	var fetched stripedto.Subscription
	s.Require().NoError(json.Unmarshal(
		subscriptionPayload("sub_1", "price_learn_monthly", "active", nil), &fetched))
	s.stripeClient.SetSubscription(&fetched)

	raw, _ := json.Marshal(map[string]interface{}{
		"id":           "cs_1",
		"customer":     testCustomerID,
		"subscription": "sub_1",
	})
	event := subscriptionEvent(stripego.EventTypeCheckoutSessionCompleted, raw)
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))

	stored, err := s.subStore.GetByProviderSubscriptionID(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(types.PlanTypeLearn, stored.Plan)
}

func (s *BillingServiceSuite) TestUnknownEventTypeIsAcked() {
	event := &stripego.Event{
		ID:   "evt_unknown",
		Type: "customer.updated",
		Data: &stripego.EventData{Raw: json.RawMessage(`{}`)},
	}
	s.Require().NoError(s.billing.ProcessEvent(s.ctx, event))
}
