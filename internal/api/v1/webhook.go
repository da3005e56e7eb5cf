package v1

import (
	"io"
	"net/http"
	"time"

	"github.com/elevatehq/elevate-api/internal/domain/webhookevent"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/integration/stripe"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/service"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

// signatureSuffixLen bounds how much of the signature header lands in the
// audit row.
const signatureSuffixLen = 12

type WebhookHandler struct {
	billing      service.BillingService
	eventRepo    webhookevent.Repository
	stripeClient stripe.Client
	logger       *logger.Logger
}

func NewWebhookHandler(
	billing service.BillingService,
	eventRepo webhookevent.Repository,
	stripeClient stripe.Client,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		billing:      billing,
		eventRepo:    eventRepo,
		stripeClient: stripeClient,
		logger:       logger,
	}
}

// HandleStripeWebhook receives provider webhook deliveries.
// Responses drive the provider's redelivery behavior: 400 on a bad signature
// (retrying cannot help), 500 on processing failure (redelivery wanted),
// 200 otherwise.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.logger.WithContext(ctx)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	signatureHeader := c.GetHeader(types.HeaderStripeSignature)
	event, err := h.stripeClient.VerifyWebhookSignature(payload, signatureHeader)
	if err != nil {
		if ierr.IsSystem(err) {
			log.Errorw("webhook verification unavailable", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook verification unavailable"})
			return
		}
		log.Warnw("rejected webhook with invalid signature",
			"source_ip", c.ClientIP(),
			"error", err,
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	// Audit row first, before any business logic. Best-effort: a broken audit
	// table must not stop subscription state from syncing.
	auditRow := &webhookevent.WebhookEvent{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		ProviderEventID:   event.ID,
		EventType:         string(event.Type),
		Payload:           payload,
		ProviderCreatedAt: time.Unix(event.Created, 0).UTC(),
		SignatureSuffix:   signatureSuffix(signatureHeader),
		SourceIP:          c.ClientIP(),
	}
	if err := h.eventRepo.Create(ctx, auditRow); err != nil {
		log.Errorw("failed to record webhook audit row",
			"event_id", event.ID,
			"error", err,
		)
	}

	processErr := h.billing.ProcessEvent(ctx, &event)

	if err := h.eventRepo.MarkProcessed(ctx, auditRow.ID, processErr); err != nil {
		log.Errorw("failed to update webhook audit row",
			"event_id", event.ID,
			"error", err,
		)
	}

	if processErr != nil {
		log.Errorw("webhook processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", processErr,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func signatureSuffix(header string) string {
	if len(header) <= signatureSuffixLen {
		return header
	}
	return header[len(header)-signatureSuffixLen:]
}
