// Package shared holds error types common to all bounded contexts.
package shared

// DomainError is an error carrying a stable machine-readable code. The HTTP
// layer maps the code to a status.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Errors wrapped with %w by services and repositories
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "resource not found")
	ErrAlreadyExists      = NewDomainError("ALREADY_EXISTS", "resource already exists")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service is not configured or unavailable")
)
