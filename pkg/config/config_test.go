package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Backend.Address == "" {
		t.Fatalf("expected default backend address")
	}
	if cfg.Links.Route != "access" {
		t.Fatalf("expected default route access, got %s", cfg.Links.Route)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Fatalf("expected default backend timeout, got %s", cfg.Backend.Timeout)
	}
	if err := cfg.Scopes.Table().Validate(); err != nil {
		t.Fatalf("default scope table invalid: %v", err)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		Backend: BackendConfig{Address: "https://vault.internal:8200"},
		Links:   LinksConfig{PublicURL: "https://access.example.com"},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Backend.Address != "https://vault.internal:8200" {
		t.Fatalf("expected backend address, got %s", cfg.Backend.Address)
	}
	if cfg.Links.PublicURL != "https://access.example.com" {
		t.Fatalf("expected public url, got %s", cfg.Links.PublicURL)
	}
	if cfg.ACL.Timeout != 10*time.Second {
		t.Fatalf("expected defaulted acl timeout, got %s", cfg.ACL.Timeout)
	}
}

func TestValidateRejectsDanglingScope(t *testing.T) {
	cfg := Defaults()
	cfg.Scopes.Environments["staging"] = "database-staging"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for scope without ACL target")
	}
}

func TestValidateRejectsMissingBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.Address = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing backend address")
	}
}
