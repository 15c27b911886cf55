package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Simplici0/ringvirkning/internal/preferences"
	"github.com/Simplici0/ringvirkning/internal/scenario"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(t *testing.T, store preferences.Store) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	r, err := NewRegistry(Options{
		Tenants:         tenant.Builtin(),
		DefaultTenantID: "nursing-union",
		Prefs:           store,
		MaxSnapshots:    3,
		IdleTimeout:     time.Hour,
		Now:             clock.Now,
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(r.Stop)
	return r, clock
}

func mustSession(t *testing.T, r *Registry, id string) *Session {
	t.Helper()
	s, err := r.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	return s
}

func undo(t *testing.T, s *Session) (State, bool) {
	t.Helper()
	st, ok, err := s.Undo(context.Background())
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	return st, ok
}

func redo(t *testing.T, s *Session) (State, bool) {
	t.Helper()
	st, ok, err := s.Redo(context.Background())
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	return st, ok
}

func TestRegistry_NewSessionStartsFromDefaultTenant(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")

	st := s.State()
	if st.TenantID != "nursing-union" || st.Input.Employees != 1000 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st.CanUndo || st.CanRedo {
		t.Fatalf("fresh session should have nothing to undo or redo")
	}
	if st.Calculation.Totals.ValueCreation <= 0 {
		t.Fatalf("expected calculation for initial state")
	}
	if again := mustSession(t, r, "a"); again != s {
		t.Fatalf("expected the same session on second lookup")
	}
}

func TestRegistry_RejectsUnknownDefaultTenant(t *testing.T) {
	_, err := NewRegistry(Options{Tenants: tenant.Builtin(), DefaultTenantID: "bakery"})
	if !errors.Is(err, tenant.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := NewRegistry(Options{}); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
}

func TestRegistry_RestoresTenantFromPreferences(t *testing.T) {
	store := preferences.NewMemoryStore()
	ctx := context.Background()
	if err := preferences.Save(ctx, store, "b", preferences.Prefs{ViewMode: preferences.ViewDetailed, TenantID: "energy-utility"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r, _ := newRegistry(t, store)
	st := mustSession(t, r, "b").State()
	if st.TenantID != "energy-utility" || st.Prefs.ViewMode != preferences.ViewDetailed {
		t.Fatalf("preferences not applied: %+v", st)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	r, _ := newRegistry(t, nil)
	a := mustSession(t, r, "a")
	b := mustSession(t, r, "b")

	in := a.State().Input
	in.Employees = 5
	if _, err := a.Update(in, a.State().Config, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	a.SaveSnapshot("only in a")

	if b.State().Input.Employees != 1000 {
		t.Fatalf("session b saw session a's input")
	}
	if len(b.Snapshots()) != 0 {
		t.Fatalf("session b saw session a's snapshots")
	}
}

func TestSession_UndoRedoRestoresState(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")
	cfg := s.State().Config

	in := s.State().Input
	in.Employees = 1100
	if _, err := s.Update(in, cfg, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	in.Employees = 1200
	if _, err := s.Update(in, cfg, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	st, ok := undo(t, s)
	if !ok || st.Input.Employees != 1100 || !st.CanRedo {
		t.Fatalf("first undo: ok=%v state=%+v", ok, st.Input)
	}
	st, ok = undo(t, s)
	if !ok || st.Input.Employees != 1000 || st.CanUndo {
		t.Fatalf("second undo: ok=%v employees=%d canUndo=%v", ok, st.Input.Employees, st.CanUndo)
	}
	if _, ok := undo(t, s); ok {
		t.Fatalf("undo past the initial state should report false")
	}

	st, ok = redo(t, s)
	if !ok || st.Input.Employees != 1100 {
		t.Fatalf("redo: ok=%v employees=%d", ok, st.Input.Employees)
	}

	in.Employees = 1500
	if _, err := s.Update(in, cfg, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := redo(t, s); ok {
		t.Fatalf("a new edit should clear redo")
	}
}

func TestSession_UpdateValidates(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")
	st := s.State()

	cfg := st.Config
	cfg.IncomeTaxRate = 3
	if _, err := s.Update(st.Input, cfg, nil); err == nil {
		t.Fatalf("expected config validation error")
	}

	bad := scenario.Scenario{ID: "x", Deltas: []scenario.Delta{{Field: "payroll", Op: scenario.OpAdd, Value: 1}}}
	if _, err := s.Update(st.Input, st.Config, &bad); !errors.Is(err, scenario.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if s.State().CanUndo {
		t.Fatalf("rejected updates should not record undo points")
	}

	in := st.Input
	in.Name = ""
	in.LocalShare = 3
	got, err := s.Update(in, st.Config, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Input.Name != st.Input.Name || got.Input.LocalShare != 1 {
		t.Fatalf("input not normalized: %+v", got.Input)
	}
}

func TestSession_ScenarioComparison(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")
	st := s.State()

	if _, ok := s.Compare(); ok {
		t.Fatalf("no scenario should mean no comparison")
	}

	preset, err := scenario.Preset("staff-plus-10")
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	got, err := s.Update(st.Input, st.Config, &preset)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Comparison == nil || got.Comparison.Difference.PercentChange <= 0 {
		t.Fatalf("expected positive comparison, got %+v", got.Comparison)
	}

	preset.Deltas[0].Value = -90
	cmpResult, ok := s.Compare()
	if !ok || cmpResult.Difference.PercentChange <= 0 {
		t.Fatalf("session scenario changed with caller's copy: %+v", cmpResult.Difference)
	}
}

func TestSession_SnapshotsAndComparisonPair(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")

	first := s.SaveSnapshot("")
	in := s.State().Input
	in.Employees = 2000
	if _, err := s.Update(in, s.State().Config, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	second := s.SaveSnapshot("bigger")

	if err := s.SetComparison(0, first.ID); err != nil {
		t.Fatalf("SetComparison: %v", err)
	}
	if err := s.SetComparison(1, second.ID); err != nil {
		t.Fatalf("SetComparison: %v", err)
	}
	pair, data, ok := s.Comparison()
	if !ok || pair[0] != first.ID || data.Difference.ValueCreation <= 0 {
		t.Fatalf("unexpected comparison: %v %+v %v", pair, data, ok)
	}

	if _, ok := s.RenameSnapshot(first.ID, "baseline"); !ok {
		t.Fatalf("rename failed")
	}
	s.DeleteSnapshot(second.ID)
	if _, _, ok := s.Comparison(); ok {
		t.Fatalf("deleted snapshot should clear the comparison")
	}

	for i := 0; i < 5; i++ {
		s.SaveSnapshot("")
	}
	if got := len(s.Snapshots()); got != 3 {
		t.Fatalf("expected snapshot bound 3, got %d", got)
	}
}

func TestSession_SetPrefsSwitchesTenant(t *testing.T) {
	store := preferences.NewMemoryStore()
	r, _ := newRegistry(t, store)
	s := mustSession(t, r, "a")
	ctx := context.Background()

	if _, err := s.SetPrefs(ctx, preferences.Prefs{ViewMode: "grid"}); err == nil {
		t.Fatalf("expected invalid view mode error")
	}
	if _, err := s.SetPrefs(ctx, preferences.Prefs{ViewMode: preferences.ViewSummary, TenantID: "bakery"}); !errors.Is(err, tenant.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p, err := s.SetPrefs(ctx, preferences.Prefs{ViewMode: preferences.ViewDetailed, TenantID: "energy-utility"})
	if err != nil {
		t.Fatalf("SetPrefs: %v", err)
	}
	st := s.State()
	if st.TenantID != "energy-utility" || st.Input.Employees != 420 || !st.CanUndo {
		t.Fatalf("tenant switch not applied: %+v", st)
	}

	stored, err := preferences.Load(ctx, store, "a", preferences.Prefs{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored != p {
		t.Fatalf("stored prefs = %+v, want %+v", stored, p)
	}

	undone, ok := undo(t, s)
	if !ok || undone.Input.Employees != 1000 {
		t.Fatalf("undo of tenant switch: ok=%v employees=%d", ok, undone.Input.Employees)
	}
	if undone.TenantID != "nursing-union" || undone.Prefs.TenantID != "nursing-union" {
		t.Fatalf("undo should restore the tenant, got tenant=%q prefs=%q", undone.TenantID, undone.Prefs.TenantID)
	}
	stored, err = preferences.Load(ctx, store, "a", preferences.Prefs{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.TenantID != "nursing-union" {
		t.Fatalf("stored tenant after undo = %q, want nursing-union", stored.TenantID)
	}

	redone, ok := redo(t, s)
	if !ok || redone.TenantID != "energy-utility" || redone.Input.Employees != 420 {
		t.Fatalf("redo of tenant switch: ok=%v tenant=%q employees=%d", ok, redone.TenantID, redone.Input.Employees)
	}
}

func TestSession_UpdateBlankNameFollowsCurrentTenant(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")
	names := map[string]string{}
	for _, tn := range tenant.Builtin() {
		names[tn.ID] = tn.Input.Name
	}
	cfg := s.State().Config

	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := "nursing-union"
			if i%2 == 0 {
				id = "energy-utility"
			}
			_, _ = s.SelectTenant(context.Background(), id)
		}(i)
		go func() {
			defer wg.Done()
			in := s.State().Input
			in.Name = ""
			st, err := s.Update(in, cfg, nil)
			if err != nil {
				errs <- err.Error()
				return
			}
			if st.Input.Name != names[st.TenantID] {
				errs <- st.TenantID + " got name " + st.Input.Name
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("blank name filled from another tenant: %s", e)
	}
}

func TestSession_SelectTenant(t *testing.T) {
	r, _ := newRegistry(t, nil)
	s := mustSession(t, r, "a")

	if _, err := s.SelectTenant(context.Background(), "bakery"); !errors.Is(err, tenant.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st, err := s.SelectTenant(context.Background(), "energy-utility")
	if err != nil {
		t.Fatalf("SelectTenant: %v", err)
	}
	if st.Prefs.TenantID != "energy-utility" || st.Scenario != nil {
		t.Fatalf("unexpected state after select: %+v", st)
	}

	undone, ok := undo(t, s)
	if !ok {
		t.Fatalf("expected undo of tenant selection")
	}
	if undone.TenantID != "nursing-union" || undone.Prefs.TenantID != "nursing-union" || undone.Input.Name != "Nursing union" {
		t.Fatalf("tenant and input disagree after undo: tenant=%q prefs=%q input=%q",
			undone.TenantID, undone.Prefs.TenantID, undone.Input.Name)
	}
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	r, clock := newRegistry(t, nil)
	mustSession(t, r, "old")
	clock.Advance(45 * time.Minute)
	mustSession(t, r, "fresh")
	clock.Advance(30 * time.Minute)

	if n := r.Evict(); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", r.Len())
	}

	mustSession(t, r, "fresh")
	clock.Advance(59 * time.Minute)
	if n := r.Evict(); n != 0 {
		t.Fatalf("touched session should survive, evicted %d", n)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r, _ := newRegistry(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Get(context.Background(), "shared")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			st := s.State()
			st.Input.Employees++
			if _, err := s.Update(st.Input, st.Config, nil); err != nil {
				t.Errorf("Update: %v", err)
			}
			s.SaveSnapshot("")
		}()
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Fatalf("expected one shared session, got %d", r.Len())
	}
}
