package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
	"github.com/goliatone/go-accesslease/pkg/interfaces/secrets"
)

// Client mints scoped credentials from a Vault-style secret backend over its
// HTTP API. Requests are authenticated with the caller's bearer token so
// entitlement stays delegated to the backend per caller.
type Client struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
}

// Config holds secret backend API settings.
type Config struct {
	Address string
	Timeout time.Duration
}

type Option func(*Client)

// WithConfig sets client configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithClient sets a custom HTTP client.
func WithClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

var _ secrets.Source = (*Client)(nil)

// New constructs the secret backend client.
func New(l logger.Logger, opts ...Option) *Client {
	if l == nil {
		l = &logger.Nop{}
	}
	client := &Client{
		cfg: Config{Timeout: 10 * time.Second},
		log: l,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.client == nil {
		client.client = &http.Client{Timeout: client.cfg.Timeout}
	}
	return client
}

// Read fetches credentials at {address}/v1/{scopePath}/creds/{level} and maps
// the reply onto the secrets error taxonomy. Failures are terminal for the
// request; nothing here retries.
func (c *Client) Read(ctx context.Context, token, scopePath, level string) (secrets.Payload, error) {
	url := fmt.Sprintf("%s/v1/%s/creds/%s", strings.TrimRight(c.cfg.Address, "/"), scopePath, level)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return secrets.Payload{}, fmt.Errorf("vault: build request: %w", err)
	}
	req.Header.Set("X-Auth-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return secrets.Payload{}, fmt.Errorf("%w: %v", secrets.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return secrets.Payload{}, fmt.Errorf("%w: %v", secrets.ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusNotFound:
		// Caller lacks entitlement for this scope/level. Backend internals
		// stay out of the error on purpose.
		return secrets.Payload{}, secrets.ErrUnauthorized
	case resp.StatusCode == http.StatusServiceUnavailable:
		return secrets.Payload{}, secrets.ErrUnavailable
	case resp.StatusCode > 299:
		c.log.Warn("vault: unexpected backend status",
			logger.Field{Key: "status", Value: resp.StatusCode})
		return secrets.Payload{}, &secrets.BackendError{Status: resp.StatusCode, Body: string(body)}
	}

	return decodePayload(body)
}

// decodePayload performs a typed partial decode of the backend body: a
// numeric lease_duration is mandatory, credential data comes from the nested
// "data" object when present and from the remaining top-level fields
// otherwise.
func decodePayload(body []byte) (secrets.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return secrets.Payload{}, fmt.Errorf("%w: %v", secrets.ErrMalformedResponse, err)
	}

	lease, err := leaseDuration(raw)
	if err != nil {
		return secrets.Payload{}, err
	}

	if data, ok := raw["data"].(map[string]any); ok && len(data) > 0 {
		return secrets.Payload{LeaseDurationSeconds: lease, Data: data}, nil
	}

	data := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "lease_duration" {
			continue
		}
		data[key] = value
	}
	return secrets.Payload{LeaseDurationSeconds: lease, Data: data}, nil
}

func leaseDuration(raw map[string]any) (int64, error) {
	value, ok := raw["lease_duration"]
	if !ok {
		return 0, fmt.Errorf("%w: missing lease_duration", secrets.ErrMalformedResponse)
	}
	num, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: lease_duration is not a number", secrets.ErrMalformedResponse)
	}
	seconds, err := num.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: lease_duration is not a number", secrets.ErrMalformedResponse)
	}
	return int64(seconds), nil
}
