package links

import (
	"strings"
)

const defaultRoute = "access"

// Builder assembles confirmation URLs that bind a nonce to the public
// confirmation endpoint.
type Builder struct {
	baseURL string
	route   string
}

// Option configures the link builder.
type Option func(*Builder)

// WithRoute overrides the confirmation route segment.
func WithRoute(route string) Option {
	return func(b *Builder) {
		if trimmed := strings.Trim(strings.TrimSpace(route), "/"); trimmed != "" {
			b.route = trimmed
		}
	}
}

// NewBuilder creates a builder rooted at the public base URL.
func NewBuilder(baseURL string, opts ...Option) *Builder {
	builder := &Builder{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		route:   defaultRoute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(builder)
		}
	}
	return builder
}

// Route returns the configured confirmation route segment.
func (b *Builder) Route() string {
	return b.route
}

// ConfirmationURL returns the single-use link for a nonce.
func (b *Builder) ConfirmationURL(nonce string) string {
	return b.baseURL + "/" + b.route + "/" + nonce
}
