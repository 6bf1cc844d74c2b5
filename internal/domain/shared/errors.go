package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState    = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnresolvedUnit  = NewDomainError("UNRESOLVED_UNIT", "Could not resolve a unit for this bill; check the unit/meter mapping")
	ErrDuplicatePeriod = NewDomainError("DUPLICATE_PERIOD", "A bill for this unit and billing period already exists; no additional copy could be stored")
	ErrLockedPeriod    = NewDomainError("LOCKED_PERIOD", "Billing for this period is locked and cannot be modified")
)
