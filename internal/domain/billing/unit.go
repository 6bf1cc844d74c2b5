package billing

import (
	"strings"

	"github.com/google/uuid"
)

// Unit is a metered residence in the estate. Code carries the category
// and position, e.g. "5BHK-B17-FF".
type Unit struct {
	ID           uuid.UUID
	Code         string
	Category     string
	Floor        string
	OwnerName    string
	OwnerContact string
	IsActive     bool
}

// NormalizeCode canonicalizes a unit code to its last two dash-separated
// segments, uppercased. "Tower-A-B17-FF" and "b17-ff" both normalize to
// "B17-FF"; codes with fewer segments are returned uppercased as-is.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	parts := strings.Split(code, "-")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "-" + parts[len(parts)-1]
	}
	return code
}

// MeterStatus marks whether a meter is currently in service
type MeterStatus string

const (
	MeterStatusActive   MeterStatus = "active"
	MeterStatusInactive MeterStatus = "inactive"
)

// Meter is a physical electricity meter. The numeric ID is the primary
// identifier; SerialNumber is the printed serial used in the field.
// IsMotor marks the shared water-motor meter attached to a block.
type Meter struct {
	ID           int64
	SerialNumber string
	UnitID       uuid.UUID
	IsMotor      bool
	Status       MeterStatus
}
