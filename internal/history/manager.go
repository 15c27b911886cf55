// Package history keeps the saved snapshots, the undo and redo stacks and the
// comparison pair of one simulator session.
//
// A Manager is not safe for concurrent use; callers that share one across
// goroutines must serialize access themselves.
package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
)

const (
	DefaultMaxSnapshots = 10
	DefaultMaxUndo      = 100
)

// ErrInvalidSlot is returned when a comparison slot other than 0 or 1 is addressed.
var ErrInvalidSlot = errors.New("comparison slot must be 0 or 1")

// Snapshot is an immutable record of simulator state at one point in time.
//
// TenantID names the tenant the state belonged to. It is empty when the caller did
// not record one.
type Snapshot struct {
	ID          string                   `json:"id"`
	Timestamp   time.Time                `json:"timestamp"`
	Name        string                   `json:"name"`
	TenantID    string                   `json:"tenantId,omitempty"`
	Input       ripple.OrganizationInput `json:"input"`
	Config      ripple.Config            `json:"config"`
	Scenario    *scenario.Scenario       `json:"scenario,omitempty"`
	Calculation ripple.Calculation       `json:"calculation"`
}

// Comparison is the difference between the two snapshots of the comparison pair.
type Comparison struct {
	Left       Snapshot          `json:"left"`
	Right      Snapshot          `json:"right"`
	Difference ripple.Difference `json:"difference"`
}

type Manager struct {
	maxSnapshots int
	maxUndo      int
	now          func() time.Time
	newID        func() string

	saved     int
	snapshots []Snapshot
	undo      []Snapshot
	redo      []Snapshot
	pair      [2]string
}

type Option func(*Manager)

// WithMaxSnapshots bounds the saved snapshot list. Values below one are ignored.
func WithMaxSnapshots(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSnapshots = n
		}
	}
}

// WithMaxUndo bounds the undo stack. Values below one are ignored.
func WithMaxUndo(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxUndo = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{
		maxSnapshots: DefaultMaxSnapshots,
		maxUndo:      DefaultMaxUndo,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Capture builds a snapshot without saving it. It is used for undo points.
func (m *Manager) Capture(input ripple.OrganizationInput, cfg ripple.Config, s *scenario.Scenario, calc ripple.Calculation, name string) Snapshot {
	return Snapshot{
		ID:          m.newID(),
		Timestamp:   m.now().UTC(),
		Name:        name,
		Input:       input,
		Config:      cfg,
		Scenario:    cloneScenario(s),
		Calculation: calc,
	}
}

// Save prepends a new snapshot and evicts the oldest ones beyond the bound.
// A blank name becomes "Snapshot N" where N counts every save of this manager.
func (m *Manager) Save(input ripple.OrganizationInput, cfg ripple.Config, s *scenario.Scenario, calc ripple.Calculation, name string) Snapshot {
	m.saved++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Snapshot %d", m.saved)
	}
	snap := m.Capture(input, cfg, s, calc, name)

	m.snapshots = append([]Snapshot{snap}, m.snapshots...)
	if len(m.snapshots) > m.maxSnapshots {
		m.snapshots = m.snapshots[:m.maxSnapshots]
	}
	return copySnapshot(snap)
}

// Delete removes a snapshot. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	for i, s := range m.snapshots {
		if s.ID == id {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			return
		}
	}
}

// Rename replaces the display name of a snapshot and reports whether it existed.
// A blank name keeps the current one.
func (m *Manager) Rename(id, name string) bool {
	name = strings.TrimSpace(name)
	for i := range m.snapshots {
		if m.snapshots[i].ID == id {
			if name != "" {
				m.snapshots[i].Name = name
			}
			return true
		}
	}
	return false
}

func (m *Manager) Get(id string) (Snapshot, bool) {
	for _, s := range m.snapshots {
		if s.ID == id {
			return copySnapshot(s), true
		}
	}
	return Snapshot{}, false
}

// Snapshots returns the saved snapshots, most recent first.
func (m *Manager) Snapshots() []Snapshot {
	out := make([]Snapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i] = copySnapshot(s)
	}
	return out
}

// PushUndo records an undo point and invalidates the redo history.
func (m *Manager) PushUndo(s Snapshot) {
	m.undo = append(m.undo, copySnapshot(s))
	if len(m.undo) > m.maxUndo {
		m.undo = m.undo[len(m.undo)-m.maxUndo:]
	}
	m.redo = nil
}

// Undo pops the latest undo point and moves it onto the redo stack.
func (m *Manager) Undo() (Snapshot, bool) {
	s, ok := pop(&m.undo)
	if !ok {
		return Snapshot{}, false
	}
	m.redo = append(m.redo, s)
	return copySnapshot(s), true
}

// Redo pops the latest redo entry and moves it back onto the undo stack.
func (m *Manager) Redo() (Snapshot, bool) {
	s, ok := pop(&m.redo)
	if !ok {
		return Snapshot{}, false
	}
	m.undo = append(m.undo, s)
	return copySnapshot(s), true
}

// PeekUndo returns the latest undo point without removing it.
func (m *Manager) PeekUndo() (Snapshot, bool) {
	if len(m.undo) == 0 {
		return Snapshot{}, false
	}
	return copySnapshot(m.undo[len(m.undo)-1]), true
}

func (m *Manager) CanUndo() bool  { return len(m.undo) > 0 }
func (m *Manager) CanRedo() bool  { return len(m.redo) > 0 }
func (m *Manager) UndoDepth() int { return len(m.undo) }
func (m *Manager) RedoDepth() int { return len(m.redo) }

// SetComparisonPair assigns a snapshot id to slot 0 or 1. An empty id clears the slot.
// The id is not checked against saved snapshots; unresolved slots surface through
// ComparisonData.
func (m *Manager) SetComparisonPair(slot int, id string) error {
	if slot < 0 || slot > 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSlot, slot)
	}
	m.pair[slot] = strings.TrimSpace(id)
	return nil
}

// ComparisonPair returns the ids currently assigned to both slots.
func (m *Manager) ComparisonPair() [2]string {
	return m.pair
}

// ComparisonData compares the two selected snapshots, left as baseline. It reports
// false when either slot is empty or refers to a snapshot that no longer exists.
func (m *Manager) ComparisonData() (*Comparison, bool) {
	left, ok := m.Get(m.pair[0])
	if !ok {
		return nil, false
	}
	right, ok := m.Get(m.pair[1])
	if !ok {
		return nil, false
	}
	return &Comparison{
		Left:       left,
		Right:      right,
		Difference: ripple.Diff(left.Calculation, right.Calculation),
	}, true
}

func pop(stack *[]Snapshot) (Snapshot, bool) {
	n := len(*stack)
	if n == 0 {
		return Snapshot{}, false
	}
	s := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return s, true
}

func copySnapshot(s Snapshot) Snapshot {
	s.Scenario = cloneScenario(s.Scenario)
	return s
}

func cloneScenario(s *scenario.Scenario) *scenario.Scenario {
	if s == nil {
		return nil
	}
	c := *s
	c.Deltas = append([]scenario.Delta(nil), s.Deltas...)
	return &c
}
