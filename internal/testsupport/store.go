package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"jokebox/internal/config"
	"jokebox/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// EnqueueText inserts one raw item whose payload is a minimal content
// document, returning the stored item.
func EnqueueText(t testing.TB, st *store.Store, sourceID string, kind store.Kind, content string) *store.RawItem {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	ctx := context.Background()
	count, err := st.InsertRawItems(ctx, []store.NewRawItem{{
		OwnerSourceID:   sourceID,
		OwnerSourceKind: kind,
		Payload:         string(payload),
	}})
	if err != nil {
		t.Fatalf("InsertRawItems: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 inserted raw item, got %d", count)
	}

	items, err := st.ListRaw(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("ListRaw: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected at least one pending item")
	}
	return items[len(items)-1]
}
