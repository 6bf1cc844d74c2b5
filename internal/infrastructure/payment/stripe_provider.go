package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentlink"
	"github.com/stripe/stripe-go/v81/price"
	"github.com/voltbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StripeProvider implements Provider using Stripe payment links
type StripeProvider struct {
	currency string
	logger   *zap.Logger
}

// NewStripeProvider configures the Stripe client and returns a provider
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	stripe.Key = cfg.APIKey

	currency := cfg.Currency
	if currency == "" {
		currency = "inr"
	}
	return &StripeProvider{currency: currency, logger: logger}, nil
}

// CreatePaymentLink creates a one-off price for the bill amount and a
// payment link selling it. The amount is converted to the smallest
// currency unit (paise); metadata rides along for webhook correlation.
func (p *StripeProvider) CreatePaymentLink(ctx context.Context, input CreatePaymentLinkInput) (*PaymentLink, error) {
	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(p.currency),
		UnitAmount: stripe.Int64(input.Amount.PaiseInt64()),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(input.Description),
		},
	}
	priceParams.Context = ctx

	pr, err := price.New(priceParams)
	if err != nil {
		p.logger.Error("Failed to create Stripe price",
			zap.String("description", input.Description),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(pr.ID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: input.Metadata,
	}
	linkParams.Context = ctx

	link, err := paymentlink.New(linkParams)
	if err != nil {
		p.logger.Error("Failed to create Stripe payment link",
			zap.String("price_id", pr.ID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment link: %w", err)
	}

	p.logger.Info("Created payment link",
		zap.String("payment_link_id", link.ID),
		zap.Int64("amount_paise", input.Amount.PaiseInt64()))

	return &PaymentLink{
		URL:    link.URL,
		ID:     link.ID,
		Active: link.Active,
	}, nil
}
