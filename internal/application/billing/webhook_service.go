package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	domainbilling "github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
	"github.com/voltbill/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// paymentEventTTL bounds how long a processed provider event id stays
// reserved in the idempotency store.
const paymentEventTTL = 24 * time.Hour

// PaymentEventInput is one provider callback as accepted by the
// transport layer, which checks the provider signature whenever a
// webhook secret is configured.
type PaymentEventInput struct {
	ProviderEventID string
	EventType       string
	PaymentLinkID   string
	Amount          valueobject.Money
	Payload         string
}

// WebhookResult reports what ProcessEvent did with the callback
type WebhookResult struct {
	Duplicate bool
	BillID    string
}

// PaymentWebhookService settles bills from payment provider callbacks.
// Every accepted event is recorded; replays and events for unknown
// payment links are acknowledged without side effects so the provider
// stops redelivering.
type PaymentWebhookService struct {
	bills       domainbilling.BillRepository
	events      domainbilling.PaymentEventRepository
	idempotency cache.IdempotencyStore
	logger      *zap.Logger
}

// PaymentWebhookServiceConfig holds the collaborators of a
// PaymentWebhookService
type PaymentWebhookServiceConfig struct {
	Bills       domainbilling.BillRepository
	Events      domainbilling.PaymentEventRepository
	Idempotency cache.IdempotencyStore
	Logger      *zap.Logger
}

// NewPaymentWebhookService creates a PaymentWebhookService
func NewPaymentWebhookService(cfg PaymentWebhookServiceConfig) *PaymentWebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentWebhookService{
		bills:       cfg.Bills,
		events:      cfg.Events,
		idempotency: cfg.Idempotency,
		logger:      logger,
	}
}

// ProcessEvent records the event and, for a completed payment on a
// known payment link, marks the bill paid. Processing is idempotent on
// the provider event id.
func (s *PaymentWebhookService) ProcessEvent(ctx context.Context, input PaymentEventInput) (*WebhookResult, error) {
	if input.ProviderEventID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "provider event id is required")
	}

	fresh, err := s.idempotency.MarkProcessed(ctx, input.ProviderEventID, paymentEventTTL)
	if err != nil {
		// The cache is an optimization; the durable uniqueness check
		// below still holds.
		s.logger.Warn("idempotency store unavailable, falling back to database check",
			zap.Error(err))
		fresh = true
	}
	if !fresh {
		s.logger.Info("payment event replayed, skipping",
			zap.String("provider_event_id", input.ProviderEventID))
		return &WebhookResult{Duplicate: true}, nil
	}

	seen, err := s.events.ExistsByProviderEventID(ctx, input.ProviderEventID)
	if err != nil {
		return nil, err
	}
	if seen {
		s.logger.Info("payment event already recorded, skipping",
			zap.String("provider_event_id", input.ProviderEventID))
		return &WebhookResult{Duplicate: true}, nil
	}

	var bill *domainbilling.Bill
	if input.PaymentLinkID != "" {
		bill, err = s.bills.FindByPaymentLinkID(ctx, input.PaymentLinkID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	var billID *uuid.UUID
	if bill != nil {
		id := bill.ID
		billID = &id
	}

	event := domainbilling.NewPaymentEvent(billID, input.ProviderEventID, input.EventType, input.Amount, input.Payload)
	if err := s.events.Insert(ctx, event); err != nil {
		return nil, err
	}

	if bill == nil {
		s.logger.Warn("payment event for unknown payment link, recorded only",
			zap.String("provider_event_id", input.ProviderEventID),
			zap.String("payment_link_id", input.PaymentLinkID))
		return &WebhookResult{}, nil
	}

	result := &WebhookResult{BillID: bill.ID.String()}
	if !isCompletedPayment(input.EventType) {
		s.logger.Info("payment event recorded without settlement",
			zap.String("provider_event_id", input.ProviderEventID),
			zap.String("event_type", input.EventType),
			zap.String("bill_id", result.BillID))
		return result, nil
	}

	if bill.Status == domainbilling.BillStatusPaid {
		s.logger.Info("bill already settled, event recorded",
			zap.String("bill_id", result.BillID))
		return result, nil
	}

	paidAt := event.ReceivedAt
	if _, err := s.bills.UpdateStatus(ctx, bill.ID, domainbilling.BillStatusPaid, &paidAt); err != nil {
		return nil, err
	}

	s.logger.Info("bill settled from payment event",
		zap.String("bill_id", result.BillID),
		zap.String("provider_event_id", input.ProviderEventID))
	return result, nil
}

// isCompletedPayment reports whether the event type signals money
// received. Stripe checkout and payment link flows both emit
// checkout.session.completed.
func isCompletedPayment(eventType string) bool {
	switch eventType {
	case "checkout.session.completed", "payment_intent.succeeded":
		return true
	}
	return false
}
