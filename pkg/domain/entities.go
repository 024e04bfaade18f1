package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeaseRecord is a pending access confirmation. One record exists per live
// nonce; every terminal confirmation outcome removes it.
type LeaseRecord struct {
	ID                   uuid.UUID `json:"id"`
	Nonce                string    `json:"nonce"`
	ScopePath            string    `json:"scope_path"`
	RequestedAt          time.Time `json:"requested_at"`
	LeaseDurationSeconds int64     `json:"lease_duration_seconds"`
}

// EnsureID assigns a random ID when the record does not have one yet.
func (r *LeaseRecord) EnsureID() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
}

// Duration returns the lease window reported by the secret backend at
// issuance time. It is fixed at creation and never renewed.
func (r LeaseRecord) Duration() time.Duration {
	return time.Duration(r.LeaseDurationSeconds) * time.Second
}

// ExpiresAt returns the instant the lease window closes.
func (r LeaseRecord) ExpiresAt() time.Time {
	return r.RequestedAt.Add(r.Duration())
}

// TTL returns the remaining validity at now, always computed relative to
// RequestedAt rather than confirmation time. Negative once expired.
func (r LeaseRecord) TTL(now time.Time) time.Duration {
	return r.ExpiresAt().Sub(now)
}

// Expired reports whether the lease window has closed at now.
func (r LeaseRecord) Expired(now time.Time) bool {
	return r.TTL(now) < 0
}
