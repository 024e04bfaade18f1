package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-accesslease/pkg/domain"
)

// ErrNotFound signals that no lease record exists for a nonce. An already
// consumed nonce is indistinguishable from one that never existed.
var ErrNotFound = errors.New("leases: not found")

// LeaseStore keeps pending access confirmations keyed by nonce.
//
// The store is a best-effort process-wide cache, not durable security state:
// losing a pending record only forces the caller to re-request credentials,
// since the secret backend remains the source of truth for lease validity.
// Each operation must be individually atomic; no cross-operation locking is
// assumed by callers.
type LeaseStore interface {
	Put(ctx context.Context, rec domain.LeaseRecord) error
	Get(ctx context.Context, nonce string) (domain.LeaseRecord, error)
	Delete(ctx context.Context, nonce string) error
}
