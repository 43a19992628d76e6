package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "examtrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestPutGetDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "state"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := st.Put(ctx, "state", `{"a":1}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, "state", `{"a":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := st.Get(ctx, "state")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != `{"a":2}` {
		t.Fatalf("unexpected value: %q", value)
	}

	if err := st.Delete(ctx, "state"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "state"); ok {
		t.Fatalf("expected key to be deleted")
	}
	if err := st.Delete(ctx, "state"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examtrack.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	value, ok, err := st.Get(context.Background(), "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("unexpected value after reopen: %q ok=%v err=%v", value, ok, err)
	}
}
