package secrets

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the caller's token lacks entitlement for the
	// requested scope/level. Backend detail is deliberately not attached.
	ErrUnauthorized = errors.New("secrets: unauthorized")
	// ErrUnavailable means the backend answered but cannot serve requests
	// right now (sealed, maintenance). Retrying is the caller's decision.
	ErrUnavailable = errors.New("secrets: backend unavailable")
	// ErrUnreachable means the request never produced a backend response.
	ErrUnreachable = errors.New("secrets: backend unreachable")
	// ErrMalformedResponse means the backend body could not be decoded or
	// is missing a numeric lease_duration.
	ErrMalformedResponse = errors.New("secrets: malformed backend response")
)

// BackendError carries the status and body of an unexpected backend reply.
// Surfaced for diagnostics only; never retried automatically.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("secrets: backend returned status %d: %s", e.Status, e.Body)
}

// Payload is the decoded secret backend response: the lease window plus the
// minted credential fields, possibly nested.
type Payload struct {
	LeaseDurationSeconds int64
	Data                 map[string]any
}

// Source mints scoped credentials from the secret backend. Calls are
// authenticated with the caller's own bearer token, never the service's;
// entitlement checks are delegated to the backend per caller.
type Source interface {
	Read(ctx context.Context, token, scopePath, level string) (Payload, error)
}
