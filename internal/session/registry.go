package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Simplici0/ringvirkning/internal/history"
	"github.com/Simplici0/ringvirkning/internal/preferences"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

const (
	defaultIdleTimeout = 2 * time.Hour
	cleanupInterval    = 5 * time.Minute
)

// Options configure a Registry.
type Options struct {
	Tenants         []tenant.Tenant
	DefaultTenantID string
	Prefs           preferences.Store
	MaxSnapshots    int
	IdleTimeout     time.Duration
	Now             func() time.Time
	Logger          zerolog.Logger
}

// Registry creates sessions on first use and evicts idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	tenants       []tenant.Tenant
	defaultTenant tenant.Tenant
	prefs         preferences.Store
	maxSnapshots  int
	idle          time.Duration
	now           func() time.Time
	logger        zerolog.Logger

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewRegistry(o Options) (*Registry, error) {
	if len(o.Tenants) == 0 {
		return nil, errors.New("session registry needs at least one tenant")
	}
	def := o.Tenants[0]
	if o.DefaultTenantID != "" {
		t, err := tenant.Find(o.Tenants, o.DefaultTenantID)
		if err != nil {
			return nil, fmt.Errorf("default tenant: %w", err)
		}
		def = t
	}
	if o.Prefs == nil {
		o.Prefs = preferences.NewMemoryStore()
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	return &Registry{
		sessions:      make(map[string]*Session),
		tenants:       o.Tenants,
		defaultTenant: def,
		prefs:         o.Prefs,
		maxSnapshots:  o.MaxSnapshots,
		idle:          o.IdleTimeout,
		now:           o.Now,
		logger:        o.Logger,
		stopCleanup:   make(chan struct{}),
	}, nil
}

// Get returns the session for id, creating it from the stored preferences when it
// does not exist yet.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id must not be empty")
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch()
		return s, nil
	}

	created := r.create(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch()
		return s, nil
	}
	r.sessions[id] = created
	return created, nil
}

func (r *Registry) create(ctx context.Context, id string) *Session {
	defaults := preferences.Prefs{ViewMode: preferences.ViewSummary, TenantID: r.defaultTenant.ID}
	prefs, err := preferences.Load(ctx, r.prefs, id, defaults)
	if err != nil {
		r.logger.Warn().Err(err).Str("session", id).Msg("using default preferences")
	}

	t, err := tenant.Find(r.tenants, prefs.TenantID)
	if err != nil {
		t = r.defaultTenant
	}
	prefs.TenantID = t.ID

	s := &Session{
		id:       id,
		tenants:  r.tenants,
		store:    r.prefs,
		now:      r.now,
		lastSeen: r.now(),
		prefs:    prefs,
		history:  history.New(history.WithMaxSnapshots(r.maxSnapshots), history.WithClock(r.now)),
	}
	s.selectLocked(t)
	return s
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Tenants returns the catalog sessions are created from.
func (r *Registry) Tenants() []tenant.Tenant {
	return append([]tenant.Tenant(nil), r.tenants...)
}

// Evict removes sessions idle for longer than the idle timeout and returns how many
// were removed.
func (r *Registry) Evict() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idle {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Start runs idle eviction in the background until Stop is called.
func (r *Registry) Start() {
	go r.cleanupLoop()
}

func (r *Registry) cleanupLoop() {
	interval := cleanupInterval
	if r.idle < interval {
		interval = r.idle
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Debug().Int("evicted", n).Int("live", r.Len()).Msg("evicted idle sessions")
			}
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
}
