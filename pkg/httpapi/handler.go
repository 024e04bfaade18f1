package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-accesslease/internal/confirm"
	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
)

// Confirmer processes one confirmation visit. Implemented by the confirm
// service; faked in tests.
type Confirmer interface {
	Confirm(ctx context.Context, v confirm.Visit) confirm.Result
}

// Handler exposes the confirmation endpoint: GET /{route}/{nonce}. No other
// methods or paths are in scope.
type Handler struct {
	confirms Confirmer
	renderer Renderer
	route    string
	log      logger.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithRenderer overrides the result renderer.
func WithRenderer(r Renderer) Option {
	return func(h *Handler) {
		if r != nil {
			h.renderer = r
		}
	}
}

// WithRoute overrides the confirmation route segment. Must match the link
// builder's route.
func WithRoute(route string) Option {
	return func(h *Handler) {
		if trimmed := strings.Trim(strings.TrimSpace(route), "/"); trimmed != "" {
			h.route = trimmed
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler builds the confirmation endpoint.
func NewHandler(confirms Confirmer, opts ...Option) (*Handler, error) {
	if confirms == nil {
		return nil, errors.New("httpapi: confirmer is required")
	}
	handler := &Handler{
		confirms: confirms,
		route:    "access",
		log:      &logger.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	if handler.renderer == nil {
		renderer, err := NewTemplateRenderer()
		if err != nil {
			return nil, err
		}
		handler.renderer = renderer
	}
	return handler, nil
}

// Register mounts the confirmation route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /"+h.route+"/{nonce}", h.handleConfirm)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	visit := confirm.Visit{
		Nonce:        r.PathValue("nonce"),
		UserAgent:    r.UserAgent(),
		RealIP:       r.Header.Get("X-Real-IP"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteAddr:   r.RemoteAddr,
	}
	result := h.confirms.Confirm(r.Context(), visit)
	h.renderer.Render(w, result)
}
