package whois

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey means no provider credential is configured. Callers must
// branch on credential presence before attempting a lookup.
var ErrNoAPIKey = errors.New("whois: api key not configured")

// ErrDomainNotFound is the provider-confirmed nonexistent domain outcome.
// It is a normal negative result, not a system fault, and is not cached.
var ErrDomainNotFound = errors.New("whois: domain does not exist")

// ProviderError is a non-400 failure status from the provider or a
// malformed success. It carries the raw status and body and is not
// retried automatically.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("whois: provider request failed with status %d: %s", e.Status, e.Body)
}

// PayloadError is a provider-reported error embedded in an otherwise
// successful response. It is domain-specific, distinct from transport
// failure, and the payload that carried it is still cached.
type PayloadError struct {
	Domain  string
	Message string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("whois: provider reported error for %s: %s", e.Domain, e.Message)
}
