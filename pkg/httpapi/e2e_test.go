package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-accesslease/adapters/dome9"
	"github.com/goliatone/go-accesslease/adapters/vault"
	"github.com/goliatone/go-accesslease/internal/confirm"
	"github.com/goliatone/go-accesslease/internal/request"
	"github.com/goliatone/go-accesslease/internal/storage/memory"
	"github.com/goliatone/go-accesslease/pkg/httpapi"
	"github.com/goliatone/go-accesslease/pkg/interfaces/secrets"
	"github.com/goliatone/go-accesslease/pkg/links"
	"github.com/goliatone/go-accesslease/pkg/scopes"
)

type grantCall struct {
	SecurityGroupID string `json:"securityGroupId"`
	CIDR            string `json:"cidr"`
	TTLMs           int64  `json:"ttlMs"`
}

type fixture struct {
	leases   *memory.LeaseStore
	request  *request.Service
	mux      *http.ServeMux
	grants   *[]grantCall
	now      *time.Time
	shutdown func()
}

// newFixture wires the full lifecycle against httptest backends: a
// Vault-style secret endpoint, a Dome9-style ACL endpoint, the in-memory
// lease store and the public confirmation handler. The clock is pinned so
// lease windows are deterministic.
func newFixture(t *testing.T, secretHandler http.HandlerFunc) *fixture {
	t.Helper()

	now := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	grants := []grantCall{}

	secretSrv := httptest.NewServer(secretHandler)

	aclSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accessLeases" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var call grantCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grants = append(grants, call)
		w.WriteHeader(http.StatusCreated)
	}))

	table := scopes.NewTable(
		map[string]string{
			"test": "database-test",
			"prod": "database-production",
		},
		map[string]string{
			"database-test":       "sg-database-test",
			"database-production": "sg-database-production",
		},
	)

	source := vault.New(nil, vault.WithConfig(vault.Config{Address: secretSrv.URL}))
	authorizer := dome9.New(nil, dome9.WithConfig(dome9.Config{Address: aclSrv.URL, APIKey: "test-key"}))

	leases := memory.NewLeaseStore()
	clock := func() time.Time { return now }

	requests, err := request.New(request.Dependencies{
		Source: source,
		Leases: leases,
		Scopes: table,
		Links:  links.NewBuilder("https://dba.example.com"),
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("request service: %v", err)
	}

	confirms, err := confirm.New(confirm.Dependencies{
		Leases: leases,
		ACL:    authorizer,
		Scopes: table,
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("confirm service: %v", err)
	}

	handler, err := httpapi.NewHandler(confirms)
	if err != nil {
		t.Fatalf("http handler: %v", err)
	}
	mux := http.NewServeMux()
	handler.Register(mux)

	f := &fixture{
		leases:  leases,
		request: requests,
		mux:     mux,
		grants:  &grants,
		now:     &now,
		shutdown: func() {
			secretSrv.Close()
			aclSrv.Close()
		},
	}
	t.Cleanup(f.shutdown)
	return f
}

func (f *fixture) visit(url string, headers map[string]string) *httptest.ResponseRecorder {
	path := strings.TrimPrefix(url, "https://dba.example.com")
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	f.mux.ServeHTTP(recorder, req)
	return recorder
}

func staticSecrets(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestRequestThenConfirmGrantsAccess(t *testing.T) {
	f := newFixture(t, staticSecrets(`{"lease_duration":600,"data":{"username":"svc-reader","password":"hunter2"}}`))

	result, err := f.request.Request(context.Background(), request.Input{
		Token:       "caller-token",
		Level:       "readonly",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 credential lines, got %d", len(result.Lines))
	}
	if !strings.HasPrefix(result.ConfirmationURL, "https://dba.example.com/access/") {
		t.Fatalf("unexpected confirmation url: %s", result.ConfirmationURL)
	}

	// A minute passes before the caller clicks the link.
	*f.now = f.now.Add(time.Minute)

	recorder := f.visit(result.ConfirmationURL, map[string]string{"X-Real-IP": "10.0.0.5"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "10.0.0.5/32") {
		t.Fatalf("granted body missing cidr: %q", recorder.Body.String())
	}

	if len(*f.grants) != 1 {
		t.Fatalf("expected one ACL grant, got %d", len(*f.grants))
	}
	grant := (*f.grants)[0]
	if grant.SecurityGroupID != "sg-database-test" {
		t.Fatalf("unexpected grant target: %s", grant.SecurityGroupID)
	}
	if grant.CIDR != "10.0.0.5/32" {
		t.Fatalf("unexpected grant cidr: %s", grant.CIDR)
	}
	if grant.TTLMs != (9 * time.Minute).Milliseconds() {
		t.Fatalf("grant ttl should be the remaining window, got %d", grant.TTLMs)
	}

	// The link is single use: a second visit is indistinguishable from an
	// unknown nonce.
	again := f.visit(result.ConfirmationURL, map[string]string{"X-Real-IP": "10.0.0.5"})
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on reuse, got %d", again.Code)
	}
	if len(*f.grants) != 1 {
		t.Fatalf("reuse must not reach the ACL backend")
	}
}

func TestConfirmAfterLeaseExpiryDoesNotGrant(t *testing.T) {
	f := newFixture(t, staticSecrets(`{"lease_duration":600,"data":{"username":"svc-reader","password":"hunter2"}}`))

	result, err := f.request.Request(context.Background(), request.Input{
		Token:       "caller-token",
		Level:       "read",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	*f.now = f.now.Add(11 * time.Minute)

	recorder := f.visit(result.ConfirmationURL, map[string]string{"X-Real-IP": "10.0.0.5"})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after expiry, got %d", recorder.Code)
	}
	if len(*f.grants) != 0 {
		t.Fatalf("expired lease must not reach the ACL backend")
	}
	if f.leases.Len() != 0 {
		t.Fatalf("expired record must be consumed")
	}
}

func TestRequestRejectsUnknownLevel(t *testing.T) {
	f := newFixture(t, staticSecrets(`{"lease_duration":600,"data":{}}`))

	_, err := f.request.Request(context.Background(), request.Input{
		Token:       "caller-token",
		Level:       "bogus",
		Environment: "test",
	})
	if !scopes.IsInvalidValue(err) {
		t.Fatalf("expected invalid value error, got %v", err)
	}
	for _, accepted := range []string{"read", "ro", "write", "rw", "admin"} {
		if !strings.Contains(err.Error(), accepted) {
			t.Fatalf("error should name accepted level %q: %v", accepted, err)
		}
	}
	if f.leases.Len() != 0 {
		t.Fatalf("rejected request must not persist a lease")
	}
}

func TestRequestSurfacesBackendDenial(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["permission denied"]}`, http.StatusUnauthorized)
	})

	_, err := f.request.Request(context.Background(), request.Input{
		Token:       "caller-token",
		Level:       "admin",
		Environment: "prod",
	})
	if !errors.Is(err, secrets.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("backend body must not leak into the error: %v", err)
	}
	if f.leases.Len() != 0 {
		t.Fatalf("denied request must not persist a lease")
	}
}

func TestCrawlerVisitPreservesLease(t *testing.T) {
	f := newFixture(t, staticSecrets(`{"lease_duration":600,"data":{"username":"svc-reader","password":"hunter2"}}`))

	result, err := f.request.Request(context.Background(), request.Input{
		Token:       "caller-token",
		Level:       "readonly",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	preview := f.visit(result.ConfirmationURL, map[string]string{
		"User-Agent": "Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)",
	})
	if preview.Code != http.StatusOK {
		t.Fatalf("crawler should get a neutral 200, got %d", preview.Code)
	}
	if len(*f.grants) != 0 {
		t.Fatalf("crawler must not trigger a grant")
	}
	if f.leases.Len() != 1 {
		t.Fatalf("crawler must not consume the lease")
	}

	human := f.visit(result.ConfirmationURL, map[string]string{"X-Real-IP": "10.0.0.5"})
	if human.Code != http.StatusOK {
		t.Fatalf("human visit after preview should still grant, got %d", human.Code)
	}
	if len(*f.grants) != 1 {
		t.Fatalf("expected exactly one grant after the human visit")
	}
}
