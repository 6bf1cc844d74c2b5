package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81/webhook"
	appbilling "github.com/voltbill/backend/internal/application/billing"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// maxWebhookBodyBytes bounds how much of a callback body is read
const maxWebhookBodyBytes = 64 * 1024

// WebhookHandler receives payment provider callbacks. With a signing
// secret configured, the Stripe-Signature header is verified before
// any event is processed; an empty secret (mock provider deployments)
// accepts events as-is.
type WebhookHandler struct {
	BaseHandler
	webhooks      *appbilling.PaymentWebhookService
	signingSecret string
	logger        *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *appbilling.PaymentWebhookService, signingSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{webhooks: webhooks, signingSecret: signingSecret, logger: logger}
}

// RegisterRoutes registers webhook routes on the API group
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payment", h.HandlePaymentEvent)
}

// paymentEventBody is the provider callback envelope. The data object
// follows Stripe's checkout session shape.
type paymentEventBody struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			PaymentLink string `json:"payment_link"`
			AmountTotal int64  `json:"amount_total"`
		} `json:"object"`
	} `json:"data"`
}

// HandlePaymentEvent records a provider event and settles the matching
// bill. Replays are acknowledged with 200 so the provider stops
// redelivering.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.BadRequest(c, "Could not read request body")
		return
	}

	if h.signingSecret != "" {
		if err := webhook.ValidatePayload(body, c.GetHeader("Stripe-Signature"), h.signingSecret); err != nil {
			h.logger.Warn("payment webhook signature rejected", zap.Error(err))
			h.Unauthorized(c, "Invalid webhook signature")
			return
		}
	}

	var event paymentEventBody
	if err := json.Unmarshal(body, &event); err != nil {
		h.BadRequest(c, "Invalid event payload")
		return
	}

	// Amounts arrive in the smallest currency unit.
	amount := valueobject.NewMoneyINR(decimal.NewFromInt(event.Data.Object.AmountTotal).Div(decimal.NewFromInt(100)))

	result, err := h.webhooks.ProcessEvent(c.Request.Context(), appbilling.PaymentEventInput{
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PaymentLinkID:   event.Data.Object.PaymentLink,
		Amount:          amount,
		Payload:         string(body),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"duplicate": result.Duplicate,
		"bill_id":   result.BillID,
	})
}
