package confirm

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-accesslease/pkg/interfaces/acl"
	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
	"github.com/goliatone/go-accesslease/pkg/interfaces/store"
	"github.com/goliatone/go-accesslease/pkg/scopes"
)

// State is the terminal outcome of a confirmation visit.
type State string

const (
	// StateGranted means the resolved IP was authorized for the remaining
	// lease window.
	StateGranted State = "granted"
	// StateExpired means the visit arrived after the lease window closed.
	StateExpired State = "expired"
	// StateNotFound means the nonce is unknown or already consumed. It must
	// render identically to Expired so nonces cannot be enumerated.
	StateNotFound State = "not_found"
	// StateFailed means the ACL backend rejected the grant. The nonce is
	// still consumed; the caller re-requests credentials for a fresh lease.
	StateFailed State = "failed"
	// StateCrawler short-circuits link-preview crawlers before any store
	// access.
	StateCrawler State = "crawler"
)

// Visit is one inbound confirmation request.
type Visit struct {
	Nonce        string
	UserAgent    string
	RealIP       string
	ForwardedFor string
	RemoteAddr   string
}

// Result carries the outcome plus the data needed to render it.
type Result struct {
	State     State
	CIDR      string
	Remaining time.Duration
}

// RemainingMinutes returns the whole minutes left on the lease, for display.
func (r Result) RemainingMinutes() int {
	return int(r.Remaining.Minutes())
}

var (
	ErrMissingLeases     = errors.New("confirm: lease store is required")
	ErrMissingAuthorizer = errors.New("confirm: acl authorizer is required")
)

// Dependencies groups the collaborators required by the confirmation handler.
type Dependencies struct {
	Leases store.LeaseStore
	ACL    acl.Authorizer
	Scopes scopes.Table
	Logger logger.Logger
	Clock  func() time.Time
}

// Service drives the confirmation state machine for a single nonce. Every
// terminal outcome consumes the lease record; a nonce is single-use
// regardless of how the visit ends.
type Service struct {
	leases store.LeaseStore
	acl    acl.Authorizer
	scopes scopes.Table
	logger logger.Logger
	now    func() time.Time
}

// New builds the confirmation handler.
func New(deps Dependencies) (*Service, error) {
	if deps.Leases == nil {
		return nil, ErrMissingLeases
	}
	if deps.ACL == nil {
		return nil, ErrMissingAuthorizer
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{
		leases: deps.Leases,
		acl:    deps.ACL,
		scopes: deps.Scopes,
		logger: deps.Logger,
		now:    deps.Clock,
	}, nil
}

// Confirm processes one confirmation visit.
func (s *Service) Confirm(ctx context.Context, v Visit) Result {
	// Crawler gate runs before the nonce is read so a chat client's link
	// preview cannot consume it.
	if isCrawler(v.UserAgent) {
		return Result{State: StateCrawler}
	}

	rec, err := s.leases.Get(ctx, v.Nonce)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("confirm: lease lookup failed",
				logger.Field{Key: "error", Value: err})
		}
		return Result{State: StateNotFound}
	}

	ttl := rec.TTL(s.now())
	if ttl < 0 {
		s.remove(ctx, v.Nonce)
		return Result{State: StateExpired}
	}

	cidr := resolveOrigin(v)

	target, ok := s.scopes.TargetFor(rec.ScopePath)
	if !ok {
		// Unknown scopes must never reach the ACL backend, even from a
		// record persisted before a config change.
		s.logger.Error("confirm: no ACL target for scope",
			logger.Field{Key: "scope", Value: rec.ScopePath})
		s.remove(ctx, v.Nonce)
		return Result{State: StateFailed}
	}

	if err := s.acl.Authorize(ctx, target, cidr, ttl); err != nil {
		s.logger.Warn("confirm: grant rejected",
			logger.Field{Key: "target", Value: target},
			logger.Field{Key: "cidr", Value: cidr},
			logger.Field{Key: "error", Value: err})
		s.remove(ctx, v.Nonce)
		return Result{State: StateFailed}
	}

	s.remove(ctx, v.Nonce)
	s.logger.Info("confirm: access granted",
		logger.Field{Key: "target", Value: target},
		logger.Field{Key: "cidr", Value: cidr},
		logger.Field{Key: "ttl", Value: ttl})

	return Result{State: StateGranted, CIDR: cidr, Remaining: ttl}
}

func (s *Service) remove(ctx context.Context, nonce string) {
	if err := s.leases.Delete(ctx, nonce); err != nil {
		s.logger.Warn("confirm: lease cleanup failed",
			logger.Field{Key: "error", Value: err})
	}
}
