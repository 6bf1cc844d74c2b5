package payment

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

// CreatePaymentLinkInput carries everything the provider needs to
// issue a hosted payment link for one bill.
type CreatePaymentLinkInput struct {
	Amount      valueobject.Money
	Description string
	Metadata    map[string]string
}

// PaymentLink is the issued link
type PaymentLink struct {
	URL    string
	ID     string
	Active bool
}

// Provider issues payment links. Implementations must be safe to call
// from multiple scheduler and request goroutines.
type Provider interface {
	CreatePaymentLink(ctx context.Context, input CreatePaymentLinkInput) (*PaymentLink, error)
}

// MockProvider returns deterministic local links. Selected explicitly
// at construction time when no provider key is configured.
type MockProvider struct {
	counter atomic.Int64
}

// NewMockProvider creates a MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// CreatePaymentLink returns a locally generated link
func (p *MockProvider) CreatePaymentLink(_ context.Context, input CreatePaymentLinkInput) (*PaymentLink, error) {
	n := p.counter.Add(1)
	id := fmt.Sprintf("plink_mock_%d", n)
	return &PaymentLink{
		URL:    "http://localhost:8080/mock-payment/" + id,
		ID:     id,
		Active: true,
	}, nil
}
