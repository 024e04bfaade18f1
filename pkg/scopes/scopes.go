package scopes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Level is a normalized database access level.
type Level string

const (
	LevelReadOnly  Level = "readonly"
	LevelReadWrite Level = "readwrite"
	LevelAdmin     Level = "admin"
)

// levelSynonyms is the exhaustive set of accepted access level spellings.
// Inputs are lowercased and trimmed before lookup.
var levelSynonyms = map[string]Level{
	"read":      LevelReadOnly,
	"ro":        LevelReadOnly,
	"readonly":  LevelReadOnly,
	"write":     LevelReadWrite,
	"rw":        LevelReadWrite,
	"readwrite": LevelReadWrite,
	"admin":     LevelAdmin,
}

// AcceptedLevels lists every accepted access level spelling.
func AcceptedLevels() []string {
	return []string{"read", "ro", "readonly", "write", "rw", "readwrite", "admin"}
}

// InvalidValueError rejects an input outside an enumerated set, naming the
// accepted values so the caller can correct the request.
type InvalidValueError struct {
	Kind     string
	Value    string
	Accepted []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("scopes: unknown %s %q (accepted: %s)", e.Kind, e.Value, strings.Join(e.Accepted, ", "))
}

// IsInvalidValue reports whether err rejects a user-correctable input.
func IsInvalidValue(err error) bool {
	var ive *InvalidValueError
	return errors.As(err, &ive)
}

// NormalizeLevel maps an access level synonym to its canonical Level.
func NormalizeLevel(input string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if level, ok := levelSynonyms[key]; ok {
		return level, nil
	}
	return "", &InvalidValueError{Kind: "access level", Value: input, Accepted: AcceptedLevels()}
}

// Table holds the static scope whitelist: environment synonyms to scope
// paths, and scope paths to network ACL targets. A scope path outside the
// table must never reach the ACL backend.
type Table struct {
	environments map[string]string
	targets      map[string]string
}

// NewTable builds a scope table. Environment keys are normalized lowercase.
func NewTable(environments, targets map[string]string) Table {
	envs := make(map[string]string, len(environments))
	for key, scope := range environments {
		envs[strings.ToLower(strings.TrimSpace(key))] = scope
	}
	tgts := make(map[string]string, len(targets))
	for scope, target := range targets {
		tgts[scope] = target
	}
	return Table{environments: envs, targets: tgts}
}

// ScopeFor resolves an environment synonym to its scope path.
func (t Table) ScopeFor(environment string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(environment))
	if scope, ok := t.environments[key]; ok {
		return scope, nil
	}
	return "", &InvalidValueError{Kind: "environment", Value: environment, Accepted: t.Environments()}
}

// TargetFor resolves a scope path to its ACL target.
func (t Table) TargetFor(scopePath string) (string, bool) {
	target, ok := t.targets[scopePath]
	return target, ok
}

// Environments returns the accepted environment synonyms, sorted.
func (t Table) Environments() []string {
	out := make([]string, 0, len(t.environments))
	for key := range t.environments {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every environment maps to a scope path with a known
// ACL target, so a valid request can always be authorized later.
func (t Table) Validate() error {
	if len(t.environments) == 0 {
		return errors.New("scopes: at least one environment is required")
	}
	for env, scope := range t.environments {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("scopes: environment %q has an empty scope path", env)
		}
		if _, ok := t.targets[scope]; !ok {
			return fmt.Errorf("scopes: scope path %q has no ACL target", scope)
		}
	}
	return nil
}
