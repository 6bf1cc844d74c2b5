package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

// PaymentEvent is an append-only record of a payment-provider callback.
// ProviderEventID is the provider's own event identity and is used for
// replay deduplication.
type PaymentEvent struct {
	ID              uuid.UUID
	BillID          *uuid.UUID
	ProviderEventID string
	EventType       string
	Amount          valueobject.Money
	Payload         string
	ReceivedAt      time.Time
}

// NewPaymentEvent records a provider callback against an optional bill
func NewPaymentEvent(billID *uuid.UUID, providerEventID, eventType string, amount valueobject.Money, payload string) *PaymentEvent {
	return &PaymentEvent{
		ID:              uuid.New(),
		BillID:          billID,
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Amount:          amount,
		Payload:         payload,
		ReceivedAt:      time.Now(),
	}
}
