package dome9

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-accesslease/pkg/interfaces/acl"
	"github.com/goliatone/go-accesslease/pkg/interfaces/logger"
)

// Client issues time-boxed IP authorizations against a Dome9-style network
// ACL API. The backend owns grant state and expiry; a call here is fire and
// forget from the module's perspective.
type Client struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
}

// Config holds ACL backend API settings.
type Config struct {
	Address string
	APIKey  string
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

var _ acl.Authorizer = (*Client)(nil)

// New constructs the ACL backend client.
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

type leaseRequest struct {
	SecurityGroupID string `json:"securityGroupId"`
	CIDR            string `json:"cidr"`
	TTLMs           int64  `json:"ttlMs"`
}

// Authorize grants cidr access to the named security group for ttl. Any
// non-2xx reply is a grant failure; the caller does not retry.
func (c *Client) Authorize(ctx context.Context, target, cidr string, ttl time.Duration) error {
	payload, err := json.Marshal(leaseRequest{
		SecurityGroupID: target,
		CIDR:            cidr,
		TTLMs:           ttl.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("dome9: encode lease request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Address, "/") + "/v1/accessLeases"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("dome9: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("dome9: authorize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("dome9: authorize rejected",
			logger.Field{Key: "status", Value: resp.StatusCode},
			logger.Field{Key: "target", Value: target})
		return fmt.Errorf("dome9: authorize failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
