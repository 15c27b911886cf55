package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
)

func newTestManager(opts ...Option) *Manager {
	n := 0
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	base := []Option{
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("snap-%d", n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	}
	return New(append(base, opts...)...)
}

func testInput(employees int) ripple.OrganizationInput {
	return ripple.OrganizationInput{
		Name:               "Nursing union",
		Employees:          employees,
		AverageSalary:      580000,
		OperatingResult:    50_000_000,
		LocalShare:         0.95,
		AgencyShare:        0.15,
		FullTimeEquivalent: 0.75,
	}
}

func save(m *Manager, employees int, name string) Snapshot {
	in := testInput(employees)
	cfg := ripple.DefaultConfig()
	return m.Save(in, cfg, nil, ripple.CalculateTotalRipple(in, cfg), name)
}

func TestSave_BoundKeepsMostRecent(t *testing.T) {
	m := newTestManager(WithMaxSnapshots(3))
	for i := 1; i <= 5; i++ {
		save(m, i*100, "")
	}

	snaps := m.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	want := []string{"Snapshot 5", "Snapshot 4", "Snapshot 3"}
	for i, s := range snaps {
		if s.Name != want[i] {
			t.Fatalf("snapshot %d name = %q, want %q", i, s.Name, want[i])
		}
	}
	if snaps[0].Input.Employees != 500 {
		t.Fatalf("most recent snapshot should be first, got %+v", snaps[0].Input)
	}
}

func TestSave_DefaultBoundIsTen(t *testing.T) {
	m := newTestManager()
	for i := 0; i < DefaultMaxSnapshots+4; i++ {
		save(m, 100+i, "")
	}
	if got := len(m.Snapshots()); got != DefaultMaxSnapshots {
		t.Fatalf("expected %d snapshots, got %d", DefaultMaxSnapshots, got)
	}
}

func TestSave_AssignsUniqueIDsAndTimestamps(t *testing.T) {
	m := New()
	a := save(m, 100, "a")
	b := save(m, 200, "b")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestSave_CopiesScenario(t *testing.T) {
	m := newTestManager()
	s, err := scenario.Preset("staff-plus-10")
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	in := testInput(100)
	cfg := ripple.DefaultConfig()
	snap := m.Save(in, cfg, &s, ripple.CalculateTotalRipple(in, cfg), "with scenario")

	s.Deltas[0].Value = 99
	got, ok := m.Get(snap.ID)
	if !ok {
		t.Fatalf("snapshot not found")
	}
	if got.Scenario == nil || got.Scenario.Deltas[0].Value != 10 {
		t.Fatalf("stored scenario changed with caller's copy: %+v", got.Scenario)
	}
}

func TestDeleteAndRename(t *testing.T) {
	m := newTestManager()
	a := save(m, 100, "first")
	b := save(m, 200, "second")

	m.Delete("missing")
	if len(m.Snapshots()) != 2 {
		t.Fatalf("deleting unknown id should be a no-op")
	}

	if !m.Rename(b.ID, "  renamed ") {
		t.Fatalf("expected rename to succeed")
	}
	got, _ := m.Get(b.ID)
	if got.Name != "renamed" || got.Input != b.Input || got.Timestamp != b.Timestamp {
		t.Fatalf("rename changed more than the name: %+v", got)
	}
	if !m.Rename(b.ID, "   ") {
		t.Fatalf("blank rename of a known id should still report true")
	}
	if got, _ := m.Get(b.ID); got.Name != "renamed" {
		t.Fatalf("blank rename should keep the name, got %q", got.Name)
	}
	if m.Rename("missing", "x") {
		t.Fatalf("rename of unknown id should report false")
	}

	m.Delete(a.ID)
	if _, ok := m.Get(a.ID); ok {
		t.Fatalf("snapshot should be deleted")
	}
	if len(m.Snapshots()) != 1 {
		t.Fatalf("expected 1 snapshot left")
	}
}

func TestUndoRedo(t *testing.T) {
	m := newTestManager()
	cfg := ripple.DefaultConfig()
	a := m.Capture(testInput(100), cfg, nil, ripple.Calculation{}, "A")
	b := m.Capture(testInput(200), cfg, nil, ripple.Calculation{}, "B")

	if _, ok := m.Undo(); ok {
		t.Fatalf("undo on empty stack should report false")
	}

	m.PushUndo(a)
	m.PushUndo(b)

	got, ok := m.Undo()
	if !ok || got.ID != b.ID {
		t.Fatalf("undo = %+v, %v; want B", got.Name, ok)
	}
	if !m.CanRedo() || m.RedoDepth() != 1 {
		t.Fatalf("undone entry should move onto the redo stack")
	}

	got, ok = m.Redo()
	if !ok || got.ID != b.ID {
		t.Fatalf("redo = %+v, %v; want B", got.Name, ok)
	}
	if m.UndoDepth() != 2 || m.CanRedo() {
		t.Fatalf("undo depth = %d, canRedo = %v", m.UndoDepth(), m.CanRedo())
	}
	if diff := cmp.Diff(b, m.undo[len(m.undo)-1]); diff != "" {
		t.Fatalf("undo tail mismatch (-want +got):\n%s", diff)
	}

	if _, ok := m.Redo(); ok {
		t.Fatalf("redo on empty stack should report false")
	}
}

func TestPushUndoClearsRedo(t *testing.T) {
	m := newTestManager()
	cfg := ripple.DefaultConfig()
	m.PushUndo(m.Capture(testInput(1), cfg, nil, ripple.Calculation{}, "A"))
	m.PushUndo(m.Capture(testInput(2), cfg, nil, ripple.Calculation{}, "B"))
	m.Undo()
	if !m.CanRedo() {
		t.Fatalf("expected redo entry after undo")
	}

	m.PushUndo(m.Capture(testInput(3), cfg, nil, ripple.Calculation{}, "C"))
	if m.CanRedo() {
		t.Fatalf("push after undo should clear redo stack")
	}
}

func TestPushUndoBound(t *testing.T) {
	m := newTestManager(WithMaxUndo(2))
	cfg := ripple.DefaultConfig()
	for i := 1; i <= 4; i++ {
		m.PushUndo(m.Capture(testInput(i), cfg, nil, ripple.Calculation{}, fmt.Sprint(i)))
	}
	if m.UndoDepth() != 2 {
		t.Fatalf("undo depth = %d, want 2", m.UndoDepth())
	}
	got, _ := m.Undo()
	if got.Name != "4" {
		t.Fatalf("latest undo point = %q, want 4", got.Name)
	}
}

func TestComparisonData(t *testing.T) {
	m := newTestManager()
	a := save(m, 100, "small")
	b := save(m, 200, "large")

	if _, ok := m.ComparisonData(); ok {
		t.Fatalf("empty pair should not resolve")
	}

	if err := m.SetComparisonPair(0, a.ID); err != nil {
		t.Fatalf("SetComparisonPair: %v", err)
	}
	if err := m.SetComparisonPair(1, b.ID); err != nil {
		t.Fatalf("SetComparisonPair: %v", err)
	}

	cmpData, ok := m.ComparisonData()
	if !ok {
		t.Fatalf("expected comparison")
	}
	want := ripple.Diff(a.Calculation, b.Calculation)
	if cmpData.Difference != want {
		t.Fatalf("difference = %+v, want %+v", cmpData.Difference, want)
	}
	if cmpData.Difference.ValueCreation <= 0 {
		t.Fatalf("larger organization should create more value")
	}

	m.Delete(b.ID)
	if got, ok := m.ComparisonData(); ok || got != nil {
		t.Fatalf("deleted snapshot should resolve to no comparison, got %+v", got)
	}
}

func TestSetComparisonPair_RejectsInvalidSlot(t *testing.T) {
	m := newTestManager()
	for _, slot := range []int{-1, 2} {
		if err := m.SetComparisonPair(slot, "x"); !errors.Is(err, ErrInvalidSlot) {
			t.Fatalf("slot %d: expected ErrInvalidSlot, got %v", slot, err)
		}
	}
	if err := m.SetComparisonPair(1, "unknown"); err != nil {
		t.Fatalf("unknown id should be accepted: %v", err)
	}
	if _, ok := m.ComparisonData(); ok {
		t.Fatalf("unknown id should resolve to no comparison")
	}
}

func TestPeekUndo(t *testing.T) {
	m := newTestManager()
	if _, ok := m.PeekUndo(); ok {
		t.Fatalf("peek on empty stack should report false")
	}
	a := m.Capture(testInput(1), ripple.DefaultConfig(), nil, ripple.Calculation{}, "A")
	m.PushUndo(a)

	got, ok := m.PeekUndo()
	if !ok || got.ID != a.ID || m.UndoDepth() != 1 {
		t.Fatalf("peek = %v, %v; depth %d", got.Name, ok, m.UndoDepth())
	}
}
