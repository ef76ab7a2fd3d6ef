package store_test

import (
	"context"
	"testing"
	"time"

	"jokebox/internal/store"
	"jokebox/internal/testsupport"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenStore(t, cfg)
}

func TestInsertAndClaimRawItems(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	count, err := st.InsertRawItems(ctx, []store.NewRawItem{
		{OwnerSourceID: "builtin-daily", OwnerSourceKind: store.KindBuiltin, Payload: `{"content":"a"}`},
		{OwnerSourceID: "builtin-daily", OwnerSourceKind: store.KindBuiltin, Payload: `{"content":"b"}`, LanguageHint: "zh-Hans"},
	})
	if err != nil {
		t.Fatalf("InsertRawItems: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 inserted, got %d", count)
	}

	pending, err := st.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending items, got %d", len(pending))
	}
	if pending[1].LanguageHint != "zh-Hans" {
		t.Fatalf("expected language hint preserved, got %q", pending[1].LanguageHint)
	}

	claimed, err := st.MarkProcessing(ctx, pending[0].ID)
	if err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	claimedAgain, err := st.MarkProcessing(ctx, pending[0].ID)
	if err != nil {
		t.Fatalf("MarkProcessing second: %v", err)
	}
	if claimedAgain {
		t.Fatal("expected second claim of same item to fail")
	}
}

func TestListPendingIsFIFO(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	first := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "first")
	second := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "second")

	pending, err := st.ListPending(ctx, 1)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("expected oldest item %d first, got %+v", first.ID, pending)
	}
	_ = second
}

func TestFailureRetryThenQuarantine(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "flaky")

	const failCap = 3
	for attempt := 1; attempt <= failCap; attempt++ {
		claimed, err := st.MarkProcessing(ctx, item.ID)
		if err != nil || !claimed {
			t.Fatalf("claim attempt %d: claimed=%v err=%v", attempt, claimed, err)
		}
		status, err := st.RecordFailure(ctx, item.ID, "boom", failCap)
		if err != nil {
			t.Fatalf("RecordFailure attempt %d: %v", attempt, err)
		}
		want := store.StatusPending
		if attempt == failCap {
			want = store.StatusFailed
		}
		if status != want {
			t.Fatalf("attempt %d: expected status %s, got %s", attempt, want, status)
		}
	}

	final, err := st.GetRawByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetRawByID: %v", err)
	}
	if final.Status != store.StatusFailed {
		t.Fatalf("expected terminal failed status, got %s", final.Status)
	}
	if final.FailCount != failCap {
		t.Fatalf("expected fail count %d, got %d", failCap, final.FailCount)
	}
	if final.LastError != "boom" {
		t.Fatalf("expected last error recorded, got %q", final.LastError)
	}

	claimed, err := st.MarkProcessing(ctx, item.ID)
	if err != nil {
		t.Fatalf("MarkProcessing after quarantine: %v", err)
	}
	if claimed {
		t.Fatal("failed items must not be claimable")
	}
}

func TestFailTwiceThenSucceed(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "eventually fine")

	for i := 0; i < 2; i++ {
		if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if _, err := st.RecordFailure(ctx, item.ID, "transient", 3); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("final claim: %v", err)
	}
	if err := st.MarkDone(ctx, item.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	final, err := st.GetRawByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetRawByID: %v", err)
	}
	if final.Status != store.StatusDone {
		t.Fatalf("expected done, got %s", final.Status)
	}
	if final.FailCount != 2 {
		t.Fatalf("expected fail count 2 preserved, got %d", final.FailCount)
	}
}

func TestMarkDroppedRecordsReason(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "banned stuff")

	if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := st.MarkDropped(ctx, item.ID, store.DropReasonPolicy); err != nil {
		t.Fatalf("MarkDropped: %v", err)
	}

	final, err := st.GetRawByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetRawByID: %v", err)
	}
	if final.Status != store.StatusDropped || final.DropReason != store.DropReasonPolicy {
		t.Fatalf("expected dropped/policy, got %s/%q", final.Status, final.DropReason)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "stuck")

	if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	reset, err := st.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset item, got %d", reset)
	}

	final, err := st.GetRawByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetRawByID: %v", err)
	}
	if final.Status != store.StatusPending {
		t.Fatalf("expected pending after sweep, got %s", final.Status)
	}
}

func TestRetryFailedResetsCounter(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "give it another go")

	if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := st.RecordFailure(ctx, item.ID, "boom", 1); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	retried, err := st.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried item, got %d", retried)
	}

	final, err := st.GetRawByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetRawByID: %v", err)
	}
	if final.Status != store.StatusPending || final.FailCount != 0 || final.LastError != "" {
		t.Fatalf("expected clean pending item, got %+v", final)
	}
}

func TestQueueStats(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "one")
	item := testsupport.EnqueueText(t, st, "src", store.KindUserOffline, "two")
	if _, err := st.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := st.MarkDone(ctx, item.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	stats, err := st.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if stats[store.StatusPending] != 1 || stats[store.StatusDone] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func sampleJoke(id, language, bucket string) *store.Joke {
	return &store.Joke{
		ID:                id,
		AgeTier:           2,
		Language:          language,
		Content:           "Content " + id,
		ContentNormalized: "content " + id,
		Fingerprint:       "00ff00ff00ff00ff",
		Bucket:            bucket,
		OwnerSourceID:     "builtin-daily",
		OwnerSourceKind:   store.KindBuiltin,
	}
}

func TestInsertJokeIsIdempotent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	inserted, err := st.InsertJoke(ctx, sampleJoke("abc123", "zh-Hans", "00ff"))
	if err != nil {
		t.Fatalf("InsertJoke: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to write a row")
	}

	again, err := st.InsertJoke(ctx, sampleJoke("abc123", "zh-Hans", "00ff"))
	if err != nil {
		t.Fatalf("InsertJoke duplicate: %v", err)
	}
	if again {
		t.Fatal("expected duplicate insert to be a no-op")
	}

	exists, err := st.JokeExists(ctx, "abc123")
	if err != nil {
		t.Fatalf("JokeExists: %v", err)
	}
	if !exists {
		t.Fatal("expected joke to exist")
	}

	count, err := st.JokeCount(ctx, 2, "zh-Hans")
	if err != nil {
		t.Fatalf("JokeCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 joke, got %d", count)
	}
}

func TestListBucketScopesByTierLanguageBucket(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	jokes := []*store.Joke{
		sampleJoke("a1", "zh-Hans", "00ff"),
		sampleJoke("a2", "zh-Hans", "00ff"),
		sampleJoke("b1", "zh-Hans", "11ee"),
		sampleJoke("c1", "en", "00ff"),
	}
	for _, joke := range jokes {
		if _, err := st.InsertJoke(ctx, joke); err != nil {
			t.Fatalf("InsertJoke %s: %v", joke.ID, err)
		}
	}

	bucket, err := st.ListBucket(ctx, 2, "zh-Hans", "00ff")
	if err != nil {
		t.Fatalf("ListBucket: %v", err)
	}
	if len(bucket) != 2 {
		t.Fatalf("expected 2 bucket mates, got %d", len(bucket))
	}
}

func TestPlayedRotation(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"j1", "j2"} {
		if _, err := st.InsertJoke(ctx, sampleJoke(id, "zh-Hans", "00ff")); err != nil {
			t.Fatalf("InsertJoke: %v", err)
		}
	}

	first, err := st.PickNextUnplayed(ctx, 2, "zh-Hans")
	if err != nil {
		t.Fatalf("PickNextUnplayed: %v", err)
	}
	if first == nil {
		t.Fatal("expected an unplayed joke")
	}
	if err := st.MarkPlayed(ctx, first.ID); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	second, err := st.PickNextUnplayed(ctx, 2, "zh-Hans")
	if err != nil {
		t.Fatalf("PickNextUnplayed second: %v", err)
	}
	if second == nil || second.ID == first.ID {
		t.Fatalf("expected a different unplayed joke, got %+v", second)
	}
	if err := st.MarkPlayed(ctx, second.ID); err != nil {
		t.Fatalf("MarkPlayed second: %v", err)
	}

	exhausted, err := st.PickNextUnplayed(ctx, 2, "zh-Hans")
	if err != nil {
		t.Fatalf("PickNextUnplayed exhausted: %v", err)
	}
	if exhausted != nil {
		t.Fatalf("expected nil when everything is played, got %+v", exhausted)
	}

	unplayed, err := st.UnplayedCount(ctx, 2, "zh-Hans")
	if err != nil {
		t.Fatalf("UnplayedCount: %v", err)
	}
	if unplayed != 0 {
		t.Fatalf("expected 0 unplayed, got %d", unplayed)
	}

	cleared, err := st.ResetPlayed(ctx)
	if err != nil {
		t.Fatalf("ResetPlayed: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 cleared played records, got %d", cleared)
	}
}

func TestFavorites(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	if _, err := st.InsertJoke(ctx, sampleJoke("fav1", "zh-Hans", "00ff")); err != nil {
		t.Fatalf("InsertJoke: %v", err)
	}

	if err := st.AddFavorite(ctx, "fav1"); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	isFav, err := st.IsFavorite(ctx, "fav1")
	if err != nil {
		t.Fatalf("IsFavorite: %v", err)
	}
	if !isFav {
		t.Fatal("expected joke to be a favorite")
	}

	favorites, err := st.ListFavorites(ctx)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != "fav1" {
		t.Fatalf("unexpected favorites %+v", favorites)
	}

	removed, err := st.RemoveFavorite(ctx, "fav1")
	if err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report success")
	}
	isFav, err = st.IsFavorite(ctx, "fav1")
	if err != nil {
		t.Fatalf("IsFavorite after removal: %v", err)
	}
	if isFav {
		t.Fatal("expected favorite to be gone")
	}
}

func TestSourceCRUDAndBootstrap(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	user := &store.Source{
		ID:                 "user-online-1",
		Kind:               store.KindUserOnline,
		Name:               "My Feed",
		Enabled:            true,
		SupportedLanguages: []string{"zh-Hans", "en"},
		ExtractionJSON:     `{"itemsPath":"items"}`,
	}
	if err := st.UpsertSource(ctx, user); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}

	loaded, err := st.GetSource(ctx, "user-online-1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if loaded == nil || loaded.Name != "My Feed" || len(loaded.SupportedLanguages) != 2 {
		t.Fatalf("unexpected loaded source %+v", loaded)
	}

	builtins := []*store.Source{
		{ID: "builtin-daily", Name: "Daily", Enabled: true, SupportedLanguages: []string{"zh-Hans"}},
		{ID: "builtin-tech", Name: "Tech", Enabled: true, SupportedLanguages: []string{"zh-Hans"}},
	}
	if err := st.ReplaceBuiltins(ctx, builtins); err != nil {
		t.Fatalf("ReplaceBuiltins: %v", err)
	}

	// A second bootstrap fully replaces the previous builtin set.
	if err := st.ReplaceBuiltins(ctx, builtins[:1]); err != nil {
		t.Fatalf("ReplaceBuiltins second: %v", err)
	}

	all, err := st.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 1 builtin + 1 user source, got %d", len(all))
	}

	fetchable, err := st.ListFetchable(ctx)
	if err != nil {
		t.Fatalf("ListFetchable: %v", err)
	}
	if len(fetchable) != 2 {
		t.Fatalf("expected both sources fetchable, got %d", len(fetchable))
	}

	ok, err := st.SetSourceEnabled(ctx, "user-online-1", false)
	if err != nil || !ok {
		t.Fatalf("SetSourceEnabled: ok=%v err=%v", ok, err)
	}
	fetchable, err = st.ListFetchable(ctx)
	if err != nil {
		t.Fatalf("ListFetchable after disable: %v", err)
	}
	if len(fetchable) != 1 || fetchable[0].ID != "builtin-daily" {
		t.Fatalf("expected only builtin fetchable, got %+v", fetchable)
	}

	removed, err := st.DeleteSource(ctx, "user-online-1")
	if err != nil || !removed {
		t.Fatalf("DeleteSource: removed=%v err=%v", removed, err)
	}
}

func TestDeleteByKindsCascades(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	if err := st.UpsertSource(ctx, &store.Source{ID: "user-offline-1", Kind: store.KindUserOffline, Name: "Pasted", Enabled: true}); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	testsupport.EnqueueText(t, st, "user-offline-1", store.KindUserOffline, "raw leftover")

	joke := sampleJoke("user1", "zh-Hans", "00ff")
	joke.OwnerSourceID = "user-offline-1"
	joke.OwnerSourceKind = store.KindUserOffline
	if _, err := st.InsertJoke(ctx, joke); err != nil {
		t.Fatalf("InsertJoke: %v", err)
	}
	if _, err := st.InsertJoke(ctx, sampleJoke("kept", "zh-Hans", "00ff")); err != nil {
		t.Fatalf("InsertJoke builtin: %v", err)
	}

	deleted, err := st.DeleteByKinds(ctx, store.KindUserOffline)
	if err != nil {
		t.Fatalf("DeleteByKinds: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted joke, got %d", deleted)
	}

	if remaining, err := st.ListRaw(ctx); err != nil || len(remaining) != 0 {
		t.Fatalf("expected raw queue emptied, got %d err=%v", len(remaining), err)
	}
	exists, err := st.JokeExists(ctx, "kept")
	if err != nil || !exists {
		t.Fatalf("expected builtin joke kept, exists=%v err=%v", exists, err)
	}
	source, err := st.GetSource(ctx, "user-offline-1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if source != nil {
		t.Fatal("expected source removed")
	}
}

func TestMetaLastFetchAt(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, ok, err := st.LastFetchAt(ctx)
	if err != nil {
		t.Fatalf("LastFetchAt: %v", err)
	}
	if ok {
		t.Fatal("expected no recorded fetch time")
	}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if err := st.SetLastFetchAt(ctx, now); err != nil {
		t.Fatalf("SetLastFetchAt: %v", err)
	}

	got, ok, err := st.LastFetchAt(ctx)
	if err != nil || !ok {
		t.Fatalf("LastFetchAt after set: ok=%v err=%v", ok, err)
	}
	if !got.Equal(now) {
		t.Fatalf("expected %v, got %v", now, got)
	}
}
