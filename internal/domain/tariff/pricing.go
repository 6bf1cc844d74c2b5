package tariff

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/billing"
)

// DefaultRate is the fallback per-unit rate when a unit has no
// pricing-table entry.
var DefaultRate = decimal.NewFromInt(12)

// DiscountRate marks units billed at the reduced rate. Units on this
// rate never carry a fixed charge.
var DiscountRate = decimal.NewFromInt(9)

// categoryFixedOverrides maps a declared category size (the BHK count
// in the identifier) to the shared maintenance component. Units of the
// same size pay the same fixed charge regardless of per-unit table
// values.
var categoryFixedOverrides = map[int]decimal.Decimal{
	5: decimal.NewFromInt(2311),
	4: decimal.NewFromInt(1890),
	2: decimal.NewFromInt(1474),
}

// UnitPricing is one pricing-table row
type UnitPricing struct {
	RatePerUnit decimal.Decimal
	FixedCharge decimal.Decimal
}

// Pricing is the resolved effective pricing for a unit
type Pricing struct {
	RatePerUnit decimal.Decimal
	FixedCharge decimal.Decimal
}

// Source supplies the pricing table keyed by canonical unit code
type Source interface {
	LoadTable(ctx context.Context) (map[string]UnitPricing, error)
}

// StaticSource is an in-memory Source for tests and fixed deployments
type StaticSource map[string]UnitPricing

// LoadTable returns a copy of the static table
func (s StaticSource) LoadTable(_ context.Context) (map[string]UnitPricing, error) {
	table := make(map[string]UnitPricing, len(s))
	for k, v := range s {
		table[k] = v
	}
	return table, nil
}

// ExtractCategorySize pulls the leading digit run before the "BHK"
// marker out of an identifier. "5BHK-B17-FF" yields (5, true); an
// identifier without the marker or without digits yields (0, false).
func ExtractCategorySize(identifier string) (int, bool) {
	raw := strings.ToUpper(strings.TrimSpace(identifier))
	idx := strings.Index(raw, "BHK")
	if idx < 0 {
		return 0, false
	}
	n := 0
	found := false
	for _, r := range raw[:idx] {
		if unicode.IsDigit(r) {
			n = n*10 + int(r-'0')
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return n, true
}

// Resolver maps unit identifiers to effective (rate, fixed charge)
// pricing. The table is loaded from the Source once and cached for the
// process lifetime; Invalidate forces a reload on the next Resolve.
type Resolver struct {
	source Source

	mu     sync.RWMutex
	table  map[string]UnitPricing
	loaded bool
}

// NewResolver creates a Resolver backed by the given table source
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the effective pricing for a unit identifier.
// Resolution: normalize the identifier to its canonical code, look it
// up in the table (absent entries fall back to the default rate with
// zero fixed charge), apply the category fixed-charge override when
// the identifier declares a recognized size, and finally force the
// fixed charge to zero for units on the discount rate.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Pricing, error) {
	table, err := r.tableCached(ctx)
	if err != nil {
		return Pricing{}, err
	}

	size, hasSize := ExtractCategorySize(identifier)
	code := billing.NormalizeCode(identifier)

	pricing := Pricing{RatePerUnit: DefaultRate, FixedCharge: decimal.Zero}
	entry, ok := table[code]
	if ok {
		pricing.RatePerUnit = entry.RatePerUnit
		pricing.FixedCharge = entry.FixedCharge

		if hasSize {
			if override, known := categoryFixedOverrides[size]; known {
				pricing.FixedCharge = override
			}
		}
	}

	if pricing.RatePerUnit.Equal(DiscountRate) {
		pricing.FixedCharge = decimal.Zero
	}
	return pricing, nil
}

// Invalidate drops the cached table so the next Resolve reloads it
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = nil
	r.loaded = false
}

func (r *Resolver) tableCached(ctx context.Context) (map[string]UnitPricing, error) {
	r.mu.RLock()
	if r.loaded {
		table := r.table
		r.mu.RUnlock()
		return table, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.table, nil
	}
	table, err := r.source.LoadTable(ctx)
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = map[string]UnitPricing{}
	}
	r.table = table
	r.loaded = true
	return table, nil
}
