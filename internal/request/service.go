package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accesslease/pkg/creds"
	"github.com/goliatone/go-accesslease/pkg/domain"
	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
	"github.com/goliatone/go-accesslease/pkg/interfaces/secrets"
	"github.com/goliatone/go-accesslease/pkg/interfaces/store"
	"github.com/goliatone/go-accesslease/pkg/links"
	"github.com/goliatone/go-accesslease/pkg/nonce"
	"github.com/goliatone/go-accesslease/pkg/scopes"
)

var (
	ErrMissingSource = errors.New("request: secret source is required")
	ErrMissingLeases = errors.New("request: lease store is required")
	ErrMissingLinks  = errors.New("request: link builder is required")
	// ErrTokenRequired rejects a request without a caller bearer token.
	ErrTokenRequired = errors.New("request: caller token is required")
)

// Dependencies groups the collaborators required by the request handler.
type Dependencies struct {
	Source secrets.Source
	Leases store.LeaseStore
	Nonces *nonce.Issuer
	Scopes scopes.Table
	Links  *links.Builder
	Logger logger.Logger
	Clock  func() time.Time
}

// Service validates a caller's scoped request, mints credentials through the
// secret backend, persists a pending lease record and emits the confirmation
// link. Every failure is terminal for the request; nothing retries.
type Service struct {
	source secrets.Source
	leases store.LeaseStore
	nonces *nonce.Issuer
	scopes scopes.Table
	links  *links.Builder
	logger logger.Logger
	now    func() time.Time
}

// Input is one scoped access request from the chat front-end.
type Input struct {
	Token       string
	Level       string
	Environment string
}

// Result carries the flattened credential listing and the confirmation URL.
type Result struct {
	Lines           []creds.Line
	ConfirmationURL string
	Lease           domain.LeaseRecord
}

// New builds the request handler.
func New(deps Dependencies) (*Service, error) {
	if deps.Source == nil {
		return nil, ErrMissingSource
	}
	if deps.Leases == nil {
		return nil, ErrMissingLeases
	}
	if deps.Links == nil {
		return nil, ErrMissingLinks
	}
	if deps.Nonces == nil {
		deps.Nonces = nonce.New()
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{
		source: deps.Source,
		leases: deps.Leases,
		nonces: deps.Nonces,
		scopes: deps.Scopes,
		links:  deps.Links,
		logger: deps.Logger,
		now:    deps.Clock,
	}, nil
}

// Request runs the credential request lifecycle.
func (s *Service) Request(ctx context.Context, in Input) (*Result, error) {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, ErrTokenRequired
	}

	level, err := scopes.NormalizeLevel(in.Level)
	if err != nil {
		return nil, err
	}
	scopePath, err := s.scopes.ScopeFor(in.Environment)
	if err != nil {
		return nil, err
	}

	payload, err := s.source.Read(ctx, token, scopePath, string(level))
	if err != nil {
		s.logger.Warn("request: credential mint failed",
			logger.Field{Key: "scope", Value: scopePath},
			logger.Field{Key: "level", Value: string(level)},
			logger.Field{Key: "error", Value: err})
		return nil, err
	}

	value, err := s.nonces.Issue()
	if err != nil {
		return nil, err
	}

	rec := domain.LeaseRecord{
		Nonce:                value,
		ScopePath:            scopePath,
		RequestedAt:          s.now().UTC(),
		LeaseDurationSeconds: payload.LeaseDurationSeconds,
	}
	rec.EnsureID()

	if err := s.leases.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("request: persist lease record: %w", err)
	}

	s.logger.Info("request: lease issued",
		logger.Field{Key: "scope", Value: scopePath},
		logger.Field{Key: "level", Value: string(level)},
		logger.Field{Key: "lease_seconds", Value: payload.LeaseDurationSeconds})

	return &Result{
		Lines:           creds.Flatten(payload.Data),
		ConfirmationURL: s.links.ConfirmationURL(value),
		Lease:           rec,
	}, nil
}
