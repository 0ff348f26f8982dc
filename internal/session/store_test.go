package session

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	exerciseStore(ctx, t, store)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	exerciseStore(ctx, t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Save(ctx, "k1", Record{CartID: "cart-1", LastOrderID: "order-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()

	record, found, err := reopened.Load(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("Load after reopen = %v, found=%v", err, found)
	}
	if record.CartID != "cart-1" || record.LastOrderID != "order-1" {
		t.Fatalf("Load after reopen = %+v", record)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func exerciseStore(ctx context.Context, t *testing.T, store Store) {
	t.Helper()

	_, found, err := store.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if found {
		t.Fatal("Load reported a record for an unknown key")
	}

	if err := store.Save(ctx, "k1", Record{CartID: "cart-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "k1", Record{CartID: "cart-2", LastOrderID: "order-1"}); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	record, found, err := store.Load(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("Load = %v, found=%v", err, found)
	}
	if record.CartID != "cart-2" || record.LastOrderID != "order-1" {
		t.Fatalf("Load = %+v, want overwritten record", record)
	}

	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Load(ctx, "k1"); found {
		t.Fatal("record survives Delete")
	}
}
