package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jokebox/internal/fetch"
	"jokebox/internal/logging"
	"jokebox/internal/sources"
	"jokebox/internal/store"
	"jokebox/internal/testsupport"
)

func mustSource(t *testing.T, st *store.Store, id string, kind store.Kind, template string, langs []string, extraction sources.Extraction) *store.Source {
	t.Helper()
	extraction.URLTemplate = template
	encoded, err := extraction.WithDefaults().Encode()
	if err != nil {
		t.Fatalf("encode extraction: %v", err)
	}
	source := &store.Source{
		ID:                 id,
		Kind:               kind,
		Name:               id,
		Enabled:            true,
		SupportedLanguages: langs,
		ExtractionJSON:     encoded,
	}
	if err := st.UpsertSource(context.Background(), source); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	return source
}

func TestFetchOnceLocalCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "builtin-daily", store.KindBuiltin,
		"local://cn-jokes/daily?lang={{lang}}&limit={{limit}}",
		[]string{"zh-Hans"}, sources.Extraction{})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 enqueued items, got %d", count)
	}

	pending, err := st.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending raw items, got %d", len(pending))
	}
	for _, item := range pending {
		if item.OwnerSourceID != "builtin-daily" || item.OwnerSourceKind != store.KindBuiltin {
			t.Fatalf("unexpected ownership %+v", item)
		}
		if item.LanguageHint != "zh-Hans" {
			t.Fatalf("expected resolved language hint, got %q", item.LanguageHint)
		}
		if !strings.Contains(item.Payload, "content") {
			t.Fatalf("payload missing content field: %s", item.Payload)
		}
	}

	if _, ok, err := st.LastFetchAt(context.Background()); err != nil || !ok {
		t.Fatalf("expected last fetch time recorded, ok=%v err=%v", ok, err)
	}
}

func TestFetchOnceHTTPEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "zh-Hans" {
			t.Errorf("expected lang substitution, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"list":[{"text":"joke one"},{"text":"joke two"},"not an object"]}}`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "user-online-x", store.KindUserOnline,
		server.URL+"?lang={{lang}}&limit={{limit}}",
		nil,
		sources.Extraction{ItemsPath: "data.list", ContentPath: "text"})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 items (non-objects skipped), got %d", count)
	}
}

func TestFetchOnceBareArrayWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"content":"a"},{"content":"b"}]`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "user-online-arr", store.KindUserOnline, server.URL, nil, sources.Extraction{})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected bare array items enqueued, got %d", count)
	}
}

func TestFetchOnceSourceFailureIsolated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "user-online-broken", store.KindUserOnline, server.URL, nil, sources.Extraction{})
	mustSource(t, st, "builtin-daily", store.KindBuiltin,
		"local://cn-jokes/daily?lang={{lang}}", []string{"zh-Hans"}, sources.Extraction{})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected healthy source to still yield 2 items, got %d", count)
	}
}

func TestFetchOnceSkipsUnsupportedLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLanguage("en"))
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "builtin-campus", store.KindBuiltin,
		"local://cn-jokes/campus?lang={{lang}}", []string{"zh-Hans"}, sources.Extraction{})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected source skipped for unsupported language, got %d items", count)
	}
}

func TestFetchOnceNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("just some plain text"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mustSource(t, st, "user-online-plain", store.KindUserOnline, server.URL, nil, sources.Extraction{})

	fetcher := fetch.New(cfg, st, logging.NewNop())
	count, err := fetcher.FetchOnce(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected non-JSON body as single item, got %d", count)
	}

	pending, err := st.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if !strings.Contains(pending[0].Payload, "just some plain text") {
		t.Fatalf("expected body captured as content, got %s", pending[0].Payload)
	}
}

func TestProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := fetch.New(cfg, st, logging.NewNop())

	good := mustSource(t, st, "builtin-daily", store.KindBuiltin,
		"local://cn-jokes/daily?lang={{lang}}", []string{"zh-Hans"}, sources.Extraction{})
	if err := fetcher.Probe(context.Background(), good, 1); err != nil {
		t.Fatalf("Probe on healthy source: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"wrong_field":"x"}]}`))
	}))
	defer server.Close()

	bad := mustSource(t, st, "user-online-bad", store.KindUserOnline, server.URL, nil, sources.Extraction{})
	if err := fetcher.Probe(context.Background(), bad, 1); err == nil {
		t.Fatal("expected probe failure for unmapped content path")
	}
}
