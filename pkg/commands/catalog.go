package commands

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-accesslease/internal/request"
	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
	"github.com/goliatone/go-accesslease/pkg/interfaces/secrets"
	"github.com/goliatone/go-accesslease/pkg/scopes"
)

// Catalog exposes go-command compatible handlers for host transports (chat
// bots, CLIs). The host decodes its own payloads, executes a command and lets
// the responder deliver the outcome back to the caller's surface.
type Catalog struct {
	RequestAccess command.Commander[AccessRequest]
}

type requestService interface {
	Request(ctx context.Context, in request.Input) (*request.Result, error)
}

// Responder delivers a command outcome back to the surface that issued it.
// ReplyTo is transport-specific (a chat channel, a user DM, a console).
type Responder interface {
	RespondAccess(ctx context.Context, replyTo string, reply AccessReply) error
}

// Dependencies wires the request service and the reply transport into the
// command catalog.
type Dependencies struct {
	Requests  requestService
	Responder Responder
	Logger    logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Requests == nil {
		return nil, errors.New("commands: request service is required")
	}
	if deps.Responder == nil {
		return nil, errors.New("commands: responder is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		RequestAccess: requestAccessCommand{
			svc:       deps.Requests,
			responder: deps.Responder,
			logger:    deps.Logger,
		},
	}, nil
}

// AccessRequest is the payload for one scoped credential request.
type AccessRequest struct {
	Token       string `json:"token"`
	Level       string `json:"level"`
	Environment string `json:"environment"`
	ReplyTo     string `json:"reply_to"`
}

// AccessReply is the user-facing outcome of an access request. On success it
// carries the credential listing (sensitive values already obscured) and the
// single-use confirmation link; on an expected failure it carries a message
// the caller can act on.
type AccessReply struct {
	Lines           []string `json:"lines,omitempty"`
	ConfirmationURL string   `json:"confirmation_url,omitempty"`
	LeaseSeconds    int64    `json:"lease_seconds,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// Granted reports whether the reply carries minted credentials.
func (r AccessReply) Granted() bool {
	return r.ConfirmationURL != ""
}

type requestAccessCommand struct {
	svc       requestService
	responder Responder
	logger    logger.Logger
}

// Execute runs one credential request and replies with the outcome. Expected
// failures (bad input, missing entitlement, backend outage) become
// user-facing replies; only internal faults surface as command errors.
func (c requestAccessCommand) Execute(ctx context.Context, msg AccessRequest) error {
	result, err := c.svc.Request(ctx, request.Input{
		Token:       msg.Token,
		Level:       msg.Level,
		Environment: msg.Environment,
	})
	if err != nil {
		reply, ok := explain(err)
		if !ok {
			return fmt.Errorf("commands: request access: %w", err)
		}
		c.logger.Warn("commands: access request rejected",
			logger.Field{Key: "error", Value: err})
		return c.responder.RespondAccess(ctx, msg.ReplyTo, reply)
	}

	lines := make([]string, 0, len(result.Lines))
	for _, line := range result.Lines {
		lines = append(lines, line.Key+": "+line.Display())
	}

	return c.responder.RespondAccess(ctx, msg.ReplyTo, AccessReply{
		Lines:           lines,
		ConfirmationURL: result.ConfirmationURL,
		LeaseSeconds:    result.Lease.LeaseDurationSeconds,
	})
}

// explain maps an expected request failure onto a user-facing message. The
// second return is false for faults the caller cannot act on.
func explain(err error) (AccessReply, bool) {
	switch {
	case scopes.IsInvalidValue(err):
		return AccessReply{Message: err.Error()}, true
	case errors.Is(err, request.ErrTokenRequired):
		return AccessReply{Message: "A personal access token is required to request credentials."}, true
	case errors.Is(err, secrets.ErrUnauthorized):
		return AccessReply{Message: "Your token is not entitled to that scope and access level."}, true
	case errors.Is(err, secrets.ErrUnavailable), errors.Is(err, secrets.ErrUnreachable):
		return AccessReply{Message: "The credential backend is unavailable right now. Try again in a few minutes."}, true
	default:
		return AccessReply{}, false
	}
}
