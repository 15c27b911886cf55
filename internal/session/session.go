// Package session keeps one isolated simulator state per browser session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Simplici0/ringvirkning/internal/history"
	"github.com/Simplici0/ringvirkning/internal/preferences"
	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

// Session is the simulator state of one user. All methods are safe for concurrent use.
//
// Every accepted change is pushed onto the undo stack, so the top of that stack is
// always the current state. Undo therefore needs at least two entries.
type Session struct {
	mu sync.Mutex

	id       string
	tenants  []tenant.Tenant
	store    preferences.Store
	now      func() time.Time
	lastSeen time.Time

	tenant   tenant.Tenant
	input    ripple.OrganizationInput
	cfg      ripple.Config
	scenario *scenario.Scenario
	prefs    preferences.Prefs
	history  *history.Manager
}

// State is a read-only view of a session.
type State struct {
	SessionID   string                   `json:"sessionId"`
	TenantID    string                   `json:"tenantId"`
	Input       ripple.OrganizationInput `json:"input"`
	Config      ripple.Config            `json:"config"`
	Scenario    *scenario.Scenario       `json:"scenario,omitempty"`
	Prefs       preferences.Prefs        `json:"preferences"`
	Calculation ripple.Calculation       `json:"calculation"`
	Comparison  *scenario.Comparison     `json:"comparison,omitempty"`
	CanUndo     bool                     `json:"canUndo"`
	CanRedo     bool                     `json:"canRedo"`
}

func (s *Session) ID() string {
	return s.id
}

// State returns the current state with a fresh calculation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Calculate runs the engine on the current input and config.
func (s *Session) Calculate() ripple.Calculation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ripple.CalculateTotalRipple(s.input, s.cfg)
}

// Compare compares the current input against the active scenario. It reports false
// when no scenario is active.
func (s *Session) Compare() (scenario.Comparison, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scenario == nil {
		return scenario.Comparison{}, false
	}
	return scenario.CompareScenarios(s.input, *s.scenario, s.cfg), true
}

// Update replaces input, config and scenario and records an undo point.
// A blank organization name keeps the current one.
func (s *Session) Update(input ripple.OrganizationInput, cfg ripple.Config, sc *scenario.Scenario) (State, error) {
	input = input.Normalize()
	if err := cfg.Validate(); err != nil {
		return State{}, fmt.Errorf("invalid config: %w", err)
	}
	if sc != nil {
		if err := sc.Validate(); err != nil {
			return State{}, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if input.Name == "" {
		input.Name = s.input.Name
	}
	if err := input.Validate(); err != nil {
		return State{}, fmt.Errorf("invalid input: %w", err)
	}
	s.input = input
	s.cfg = cfg
	s.scenario = cloneScenario(sc)
	s.recordLocked("edit")
	return s.stateLocked(), nil
}

// SelectTenant resets the simulator to the facts of another tenant, records an
// undo point and remembers the choice in the preferences.
func (s *Session) SelectTenant(ctx context.Context, id string) (State, error) {
	t, err := tenant.Find(s.tenants, id)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	s.selectLocked(t)
	prefs := s.prefs
	state := s.stateLocked()
	s.mu.Unlock()

	if err := preferences.Save(ctx, s.store, s.id, prefs); err != nil {
		return state, err
	}
	return state, nil
}

// Undo restores the state before the latest change. It reports false when there is
// nothing to undo. When the restored state belongs to another tenant the preferences
// follow it; a failure to persist them is returned together with the restored state.
func (s *Session) Undo(ctx context.Context) (State, bool, error) {
	s.mu.Lock()
	if s.history.UndoDepth() < 2 {
		s.mu.Unlock()
		return State{}, false, nil
	}
	s.history.Undo()
	prev, _ := s.history.PeekUndo()
	return s.finishRestore(ctx, prev)
}

// Redo reapplies the latest undone change.
func (s *Session) Redo(ctx context.Context) (State, bool, error) {
	s.mu.Lock()
	next, ok := s.history.Redo()
	if !ok {
		s.mu.Unlock()
		return State{}, false, nil
	}
	return s.finishRestore(ctx, next)
}

// finishRestore must be called with s.mu held and releases it.
func (s *Session) finishRestore(ctx context.Context, snap history.Snapshot) (State, bool, error) {
	switched := s.restoreLocked(snap)
	prefs := s.prefs
	state := s.stateLocked()
	s.mu.Unlock()

	if !switched {
		return state, true, nil
	}
	if err := preferences.Save(ctx, s.store, s.id, prefs); err != nil {
		return state, true, err
	}
	return state, true, nil
}

// Prefs returns the session preferences.
func (s *Session) Prefs() preferences.Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPrefs validates and stores new preferences. A changed tenant id selects that tenant.
func (s *Session) SetPrefs(ctx context.Context, p preferences.Prefs) (preferences.Prefs, error) {
	if err := p.Validate(); err != nil {
		return preferences.Prefs{}, err
	}

	s.mu.Lock()
	if p.TenantID == "" {
		p.TenantID = s.tenant.ID
	}
	if p.TenantID != s.tenant.ID {
		t, err := tenant.Find(s.tenants, p.TenantID)
		if err != nil {
			s.mu.Unlock()
			return preferences.Prefs{}, err
		}
		s.selectLocked(t)
	}
	s.prefs = p
	s.mu.Unlock()

	if err := preferences.Save(ctx, s.store, s.id, p); err != nil {
		return p, err
	}
	return p, nil
}

// SaveSnapshot saves the current state under name.
func (s *Session) SaveSnapshot(name string) history.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	calc := ripple.CalculateTotalRipple(s.input, s.cfg)
	return s.history.Save(s.input, s.cfg, s.scenario, calc, name)
}

func (s *Session) Snapshots() []history.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshots()
}

func (s *Session) Snapshot(id string) (history.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Get(id)
}

func (s *Session) RenameSnapshot(id, name string) (history.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.history.Rename(id, name) {
		return history.Snapshot{}, false
	}
	return s.history.Get(id)
}

func (s *Session) DeleteSnapshot(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Delete(id)
}

func (s *Session) SetComparison(slot int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.SetComparisonPair(slot, id)
}

// Comparison returns the selected pair ids and, when both resolve, their comparison.
func (s *Session) Comparison() ([2]string, *history.Comparison, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.history.ComparisonData()
	return s.history.ComparisonPair(), data, ok
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) selectLocked(t tenant.Tenant) {
	s.tenant = t
	s.input = t.Input
	s.cfg = t.Config
	s.scenario = nil
	s.prefs.TenantID = t.ID
	s.recordLocked("tenant " + t.ID)
}

func (s *Session) recordLocked(label string) {
	calc := ripple.CalculateTotalRipple(s.input, s.cfg)
	snap := s.history.Capture(s.input, s.cfg, s.scenario, calc, label)
	snap.TenantID = s.tenant.ID
	s.history.PushUndo(snap)
}

// restoreLocked applies an undo point and reports whether it switched tenant.
func (s *Session) restoreLocked(snap history.Snapshot) bool {
	s.input = snap.Input
	s.cfg = snap.Config
	s.scenario = snap.Scenario
	if snap.TenantID == "" || snap.TenantID == s.tenant.ID {
		return false
	}
	t, err := tenant.Find(s.tenants, snap.TenantID)
	if err != nil {
		return false
	}
	s.tenant = t
	s.prefs.TenantID = t.ID
	return true
}

func (s *Session) stateLocked() State {
	st := State{
		SessionID:   s.id,
		TenantID:    s.tenant.ID,
		Input:       s.input,
		Config:      s.cfg,
		Prefs:       s.prefs,
		Calculation: ripple.CalculateTotalRipple(s.input, s.cfg),
		CanUndo:     s.history.UndoDepth() > 1,
		CanRedo:     s.history.CanRedo(),
	}
	if s.scenario != nil {
		st.Scenario = cloneScenario(s.scenario)
		cmp := scenario.CompareScenarios(s.input, *s.scenario, s.cfg)
		st.Comparison = &cmp
	}
	return st
}

func cloneScenario(sc *scenario.Scenario) *scenario.Scenario {
	if sc == nil {
		return nil
	}
	c := *sc
	c.Deltas = append([]scenario.Delta(nil), sc.Deltas...)
	return &c
}
