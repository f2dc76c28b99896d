package store

import (
	"context"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	pure, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	kvs := map[string]KV{
		"memory": NewMemoryKV(),
		"gorm":   NewGormKV(db),
		"sqlite": pure,
	}
	t.Cleanup(func() {
		for _, kv := range kvs {
			kv.Close()
		}
	})
	return kvs
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v; want not found", ok, err)
			}

			if err := kv.Set(ctx, "tasks_u1", []byte(`[1]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := kv.Set(ctx, "tasks_u1", []byte(`[1,2]`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}

			got, ok, err := kv.Get(ctx, "tasks_u1")
			if err != nil || !ok {
				t.Fatalf("Get = ok %v, err %v", ok, err)
			}
			if string(got) != `[1,2]` {
				t.Errorf("Get = %s, want [1,2]", got)
			}

			if err := kv.Delete(ctx, "tasks_u1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "tasks_u1"); ok {
				t.Error("key still present after Delete")
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("file:already.db?mode=ro"); got != "file:already.db?mode=ro" {
		t.Errorf("sqliteDSN kept prefix = %q", got)
	}
	dsn := sqliteDSN(filepath.Join(t.TempDir(), "x.db"))
	if len(dsn) < 5 || dsn[:5] != "file:" {
		t.Errorf("sqliteDSN = %q, want file: scheme", dsn)
	}
}
