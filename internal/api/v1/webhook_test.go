package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elevatehq/elevate-api/internal/cache"
	"github.com/elevatehq/elevate-api/internal/config"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/service"
	"github.com/elevatehq/elevate-api/internal/testutil"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/suite"
)

const testWebhookSecret = "whsec_test_secret"

type WebhookHandlerSuite struct {
	suite.Suite
	router *gin.Engine

	subStore   *testutil.InMemorySubscriptionStore
	eventStore *testutil.InMemoryWebhookEventStore
	billing    service.BillingService
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Stripe.Prices = map[string]config.PlanPrice{
		"price_accel_monthly": {Plan: types.PlanTypeAccelerate, Cadence: types.BillingCadenceMonthly},
	}

	log, err := logger.NewLogger(cfg)
	s.Require().NoError(err)

	s.subStore = testutil.NewInMemorySubscriptionStore()
	s.eventStore = testutil.NewInMemoryWebhookEventStore()
	stripeClient := testutil.NewFakeStripeClient(testWebhookSecret)

	params := service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		Cache:            cache.NewInMemoryCache(cfg),
		SubRepo:          s.subStore,
		WebhookEventRepo: s.eventStore,
		PortfolioRepo:    testutil.NewInMemoryPortfolioStore(),
		UserRepo:         testutil.NewInMemoryUserStore(),
		StripeClient:     stripeClient,
		ConvertKit:       testutil.NewFakeConvertKitClient(),
	}
	s.billing = service.NewBillingService(params, service.NewPlanService(params))

	handler := NewWebhookHandler(s.billing, s.eventStore, stripeClient, log)

	s.router = gin.New()
	s.router.POST("/webhooks/stripe", handler.HandleStripeWebhook)
}

func eventEnvelope(eventID, eventType string, object map[string]interface{}) []byte {
	envelope := map[string]interface{}{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	}
	raw, _ := json.Marshal(envelope)
	return raw
}

func subscriptionObject(subID string, withPeriods bool) map[string]interface{} {
	item := map[string]interface{}{
		"id": "si_1",
		"price": map[string]interface{}{
			"id":        "price_accel_monthly",
			"recurring": map[string]string{"interval": "month"},
		},
	}
	if withPeriods {
		item["current_period_start"] = 1767225600
		item["current_period_end"] = 1769904000
	}
	return map[string]interface{}{
		"id":       subID,
		"customer": "cus_1",
		"status":   "active",
		"metadata": map[string]string{"user_id": "user-1"},
		"items":    map[string]interface{}{"data": []map[string]interface{}{item}},
	}
}

func (s *WebhookHandlerSuite) deliver(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(types.HeaderStripeSignature, signature)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *WebhookHandlerSuite) sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func (s *WebhookHandlerSuite) TestValidEventIsProcessedAndAudited() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))

	rec := s.deliver(payload, s.sign(payload))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"received": true}`, rec.Body.String())

	stored, err := s.subStore.GetByProviderSubscriptionID(context.Background(), "sub_1")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(types.PlanTypeAccelerate, stored.Plan)

	audit := s.eventStore.GetByProviderEventID("evt_1")
	s.Require().NotNil(audit)
	s.True(audit.Processed)
	s.Nil(audit.ProcessingError)
	s.NotNil(audit.ProcessedAt)
}

func (s *WebhookHandlerSuite) TestBadSignatureIsRejectedBeforeAudit() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))

	rec := s.deliver(payload, "t=123,v1=deadbeef")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Nil(s.eventStore.GetByProviderEventID("evt_1"))
	s.Equal(0, s.subStore.Count())
}

func (s *WebhookHandlerSuite) TestMissingSignatureIsRejected() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))

	rec := s.deliver(payload, "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(0, s.subStore.Count())
}

func (s *WebhookHandlerSuite) TestTamperedPayloadIsRejected() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))
	signature := s.sign(payload)

	tampered := bytes.Replace(payload, []byte("user-1"), []byte("user-2"), 1)
	rec := s.deliver(tampered, signature)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(0, s.subStore.Count())
}

func (s *WebhookHandlerSuite) TestProcessingFailureReturns500AndRecordsError() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", false))

	rec := s.deliver(payload, s.sign(payload))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(0, s.subStore.Count())

	audit := s.eventStore.GetByProviderEventID("evt_1")
	s.Require().NotNil(audit)
	s.False(audit.Processed)
	s.Require().NotNil(audit.ProcessingError)
	s.Contains(*audit.ProcessingError, "billing period")
}

func (s *WebhookHandlerSuite) TestUnknownEventTypeIsAcked() {
	payload := eventEnvelope("evt_1", "customer.updated", map[string]interface{}{"id": "cus_1"})

	rec := s.deliver(payload, s.sign(payload))

	s.Equal(http.StatusOK, rec.Code)

	audit := s.eventStore.GetByProviderEventID("evt_1")
	s.Require().NotNil(audit)
	s.True(audit.Processed)
}

func (s *WebhookHandlerSuite) TestRedeliveryKeepsOriginalAuditRow() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))
	signature := s.sign(payload)

	s.deliver(payload, signature)
	rec := s.deliver(payload, signature)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.subStore.Count())

	events, err := s.eventStore.List(context.Background(), 10)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *WebhookHandlerSuite) TestSignatureSuffixIsTruncated() {
	payload := eventEnvelope("evt_1", "customer.subscription.created", subscriptionObject("sub_1", true))
	signature := s.sign(payload)

	s.deliver(payload, signature)

	audit := s.eventStore.GetByProviderEventID("evt_1")
	s.Require().NotNil(audit)
	s.LessOrEqual(len(audit.SignatureSuffix), signatureSuffixLen)
	s.NotEqual(signature, audit.SignatureSuffix)
}
