package preferences

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/ringvirkning/internal/db"
	"github.com/Simplici0/ringvirkning/internal/migrations"
)

var defaults = Prefs{ViewMode: ViewSummary, TenantID: "nursing-union"}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := migrations.Up(database); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewSQLiteStore(database)
}

func TestLoadSave(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := Load(ctx, store, "abc", defaults)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got != defaults {
				t.Fatalf("missing prefs should yield defaults, got %+v", got)
			}

			want := Prefs{ViewMode: ViewDetailed, TenantID: "energy-utility"}
			if err := Save(ctx, store, "abc", want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := Save(ctx, store, "abc", want); err != nil {
				t.Fatalf("Save again: %v", err)
			}

			got, err = Load(ctx, store, "abc", defaults)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got != want {
				t.Fatalf("Load = %+v, want %+v", got, want)
			}

			other, err := Load(ctx, store, "xyz", defaults)
			if err != nil {
				t.Fatalf("Load other: %v", err)
			}
			if other != defaults {
				t.Fatalf("sessions should not share prefs, got %+v", other)
			}
		})
	}
}

func TestSave_RejectsUnknownViewMode(t *testing.T) {
	store := NewMemoryStore()
	if err := Save(context.Background(), store, "abc", Prefs{ViewMode: "compact"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, ok, _ := store.Get(context.Background(), key("abc")); ok {
		t.Fatalf("invalid prefs should not be stored")
	}
}

func TestLoad_FillsInvalidStoredFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, key("abc"), `{"viewMode":"compact","tenantId":""}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := Load(ctx, store, "abc", defaults)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != defaults {
		t.Fatalf("Load = %+v, want defaults", got)
	}
}

func TestLoad_CorruptValue(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, key("abc"), "{not json")

	got, err := Load(ctx, store, "abc", defaults)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if got != defaults {
		t.Fatalf("corrupt value should still return defaults, got %+v", got)
	}
}

func TestRedisStore_UnreachableServerIsAnError(t *testing.T) {
	store := NewRedisStore("127.0.0.1:1", 0)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, ok, err := store.Get(ctx, "prefs:abc"); err == nil || ok {
		t.Fatalf("expected connection error, got ok=%v err=%v", ok, err)
	}
	if err := store.Ping(ctx); err == nil {
		t.Fatalf("expected ping error")
	}
}
