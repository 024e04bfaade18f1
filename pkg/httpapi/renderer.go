package httpapi

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-accesslease/internal/confirm"
	gotemplate "github.com/goliatone/go-template"
)

// Renderer turns a confirmation outcome into a response. Hosts supply their
// own page rendering; the default produces minimal text pages.
type Renderer interface {
	Render(w http.ResponseWriter, result confirm.Result)
}

// Expired and NotFound deliberately share one body so an unknown nonce is
// indistinguishable from a consumed one.
const (
	grantedTemplate = "Access granted to {{ cidr }} for {{ minutes }} more minutes.\n"
	goneTemplate    = "This link has expired or was already used. Request access again to get a fresh one.\n"
	failedTemplate  = "Your address could not be authorized. Request access again to get a fresh link.\n"
	crawlerBody     = "ok\n"
)

// TemplateRenderer renders outcomes with go-template.
type TemplateRenderer struct {
	engine *gotemplate.Engine
}

var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer builds the default renderer.
func NewTemplateRenderer(opts ...gotemplate.Option) (*TemplateRenderer, error) {
	rendererOpts := append([]gotemplate.Option{gotemplate.WithBaseDir(".")}, opts...)
	engine, err := gotemplate.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("httpapi: build renderer: %w", err)
	}
	return &TemplateRenderer{engine: engine}, nil
}

func (t *TemplateRenderer) Render(w http.ResponseWriter, result confirm.Result) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	switch result.State {
	case confirm.StateGranted:
		t.write(w, http.StatusOK, grantedTemplate, map[string]any{
			"cidr":    result.CIDR,
			"minutes": result.RemainingMinutes(),
		})
	case confirm.StateFailed:
		t.write(w, http.StatusBadGateway, failedTemplate, nil)
	case confirm.StateCrawler:
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, crawlerBody)
	default: // Expired and NotFound render identically.
		t.write(w, http.StatusNotFound, goneTemplate, nil)
	}
}

func (t *TemplateRenderer) write(w http.ResponseWriter, status int, template string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	body, err := t.engine.RenderString(template, data)
	if err != nil {
		// Render failures fall back to the raw template text.
		body = template
	}
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
