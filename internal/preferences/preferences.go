// Package preferences persists per-session UI preferences behind a small key/value
// store. Only the session layer talks to it.
package preferences

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

type ViewMode string

const (
	ViewSummary  ViewMode = "summary"
	ViewDetailed ViewMode = "detailed"
)

// Prefs are the preferences remembered for one session.
type Prefs struct {
	ViewMode ViewMode `json:"viewMode"`
	TenantID string   `json:"tenantId"`
}

// Validate rejects view modes outside the fixed set.
func (p Prefs) Validate() error {
	switch p.ViewMode {
	case ViewSummary, ViewDetailed:
		return nil
	}
	return fmt.Errorf("view mode must be %q or %q, got %q", ViewSummary, ViewDetailed, p.ViewMode)
}

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

func key(sessionID string) string {
	return "prefs:" + sessionID
}

// Load returns the stored preferences for a session, or defaults when none are stored.
// Stored fields that are empty or invalid fall back to the matching default.
func Load(ctx context.Context, store Store, sessionID string, defaults Prefs) (Prefs, error) {
	raw, ok, err := store.Get(ctx, key(sessionID))
	if err != nil {
		return defaults, fmt.Errorf("load preferences: %w", err)
	}
	if !ok {
		return defaults, nil
	}

	var p Prefs
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return defaults, fmt.Errorf("decode preferences: %w", err)
	}
	if p.Validate() != nil {
		p.ViewMode = defaults.ViewMode
	}
	if strings.TrimSpace(p.TenantID) == "" {
		p.TenantID = defaults.TenantID
	}
	return p, nil
}

// Save validates and stores the preferences for a session.
func Save(ctx context.Context, store Store, sessionID string, p Prefs) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := store.Set(ctx, key(sessionID), string(raw)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
