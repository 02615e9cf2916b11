package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/cache"
	"reel/internal/testsupport"
)

func publishArtifact(t *testing.T, store *cache.Store, segmentID string, stage cache.Stage, key, contents string) *cache.Record {
	t.Helper()

	tmp := store.TempPath(".bin")
	if err := os.WriteFile(tmp, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp artifact: %v", err)
	}
	record, err := store.Publish(context.Background(), segmentID, stage, key, tmp, ".bin", cache.Metadata{DurationSeconds: 1.5})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	return record
}

func TestPublishAndLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	record := publishArtifact(t, store, "intro", cache.StageNarration, "aaaa1111", "audio-bytes")
	if record == nil {
		t.Fatal("expected record after publish")
	}
	if record.DurationSeconds != 1.5 {
		t.Fatalf("unexpected duration: %v", record.DurationSeconds)
	}
	if !strings.HasPrefix(record.Path, cfg.Paths.CacheDir) {
		t.Fatalf("artifact published outside cache dir: %s", record.Path)
	}
	if data, err := os.ReadFile(record.Path); err != nil || string(data) != "audio-bytes" {
		t.Fatalf("artifact contents wrong: %q err=%v", data, err)
	}

	fetched, err := store.Lookup(ctx, "intro", cache.StageNarration, "aaaa1111")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if fetched == nil || fetched.Path != record.Path {
		t.Fatalf("unexpected lookup result: %#v", fetched)
	}

	miss, err := store.Lookup(ctx, "intro", cache.StageNarration, "bbbb2222")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected miss for unknown key, got %#v", miss)
	}
}

func TestLookupDropsDanglingRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	record := publishArtifact(t, store, "intro", cache.StageRender, "cccc3333", "frame-bytes")
	if err := os.Remove(record.Path); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}

	fetched, err := store.Lookup(ctx, "intro", cache.StageRender, "cccc3333")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected miss after artifact removal, got %#v", fetched)
	}

	// The dangling record is gone, so the tuple reads as absent, not stale.
	state, err := store.StageState(ctx, "intro", cache.StageRender, "cccc3333")
	if err != nil {
		t.Fatalf("StageState failed: %v", err)
	}
	if state != cache.StateAbsent {
		t.Fatalf("expected absent, got %s", state)
	}
}

func TestPublishReplacesExistingKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	publishArtifact(t, store, "intro", cache.StageCombine, "dddd4444", "first")
	publishArtifact(t, store, "intro", cache.StageCombine, "dddd4444", "second")

	record, err := store.Lookup(ctx, "intro", cache.StageCombine, "dddd4444")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected record")
	}
	if data, _ := os.ReadFile(record.Path); string(data) != "second" {
		t.Fatalf("expected replacement contents, got %q", data)
	}
}

func TestStageStateDistinguishesStaleFromAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	publishArtifact(t, store, "intro", cache.StageNarration, "old-key-1", "audio")

	state, err := store.StageState(ctx, "intro", cache.StageNarration, "new-key-2")
	if err != nil {
		t.Fatalf("StageState failed: %v", err)
	}
	if state != cache.StateStale {
		t.Fatalf("expected stale, got %s", state)
	}

	state, err = store.StageState(ctx, "outro", cache.StageNarration, "new-key-2")
	if err != nil {
		t.Fatalf("StageState failed: %v", err)
	}
	if state != cache.StateAbsent {
		t.Fatalf("expected absent, got %s", state)
	}

	state, err = store.StageState(ctx, "intro", cache.StageNarration, "old-key-1")
	if err != nil {
		t.Fatalf("StageState failed: %v", err)
	}
	if state != cache.StateHit {
		t.Fatalf("expected hit, got %s", state)
	}
}

func TestInvalidateScopesToSegmentAndStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	narration := publishArtifact(t, store, "intro", cache.StageNarration, "key-n", "audio")
	render := publishArtifact(t, store, "intro", cache.StageRender, "key-r", "video")
	other := publishArtifact(t, store, "outro", cache.StageNarration, "key-n", "audio")

	removed, err := store.Invalidate(ctx, "intro", cache.StageNarration)
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(narration.Path); !os.IsNotExist(err) {
		t.Fatalf("expected narration artifact removed, stat err=%v", err)
	}
	if _, err := os.Stat(render.Path); err != nil {
		t.Fatalf("render artifact should survive: %v", err)
	}
	if _, err := os.Stat(other.Path); err != nil {
		t.Fatalf("other segment artifact should survive: %v", err)
	}
}

func TestInvalidateIncludesGridCellScopes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	cell := publishArtifact(t, store, "matrix/cell-0", cache.StageRender, "key-c", "cell")
	publishArtifact(t, store, "matrix", cache.StageRender, "key-g", "grid")

	removed, err := store.Invalidate(ctx, "matrix", cache.StageRender)
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected grid and cell removed, got %d", removed)
	}
	if _, err := os.Stat(cell.Path); !os.IsNotExist(err) {
		t.Fatalf("expected cell artifact removed, stat err=%v", err)
	}
}

func TestClearResetsEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	record := publishArtifact(t, store, "intro", cache.StageSource, "key-s", "content")
	publishArtifact(t, store, cache.ExportScope, cache.StageExport, "key-e", "final")

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(record.Path); !os.IsNotExist(err) {
		t.Fatalf("expected artifact removed, stat err=%v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected empty stats, got %#v", stats)
	}

	// The tmp directory survives a clear so the next build can publish.
	if _, err := os.Stat(filepath.Join(cfg.Paths.CacheDir, "tmp")); err != nil {
		t.Fatalf("tmp dir missing after clear: %v", err)
	}
}

func TestClearStageLeavesOtherStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	render := publishArtifact(t, store, "intro", cache.StageRender, "key-r", "video")
	combine := publishArtifact(t, store, "intro", cache.StageCombine, "key-c", "muxed")
	export := publishArtifact(t, store, cache.ExportScope, cache.StageExport, "key-e", "final")

	removed, err := store.ClearStage(ctx, cache.StageExport)
	if err != nil {
		t.Fatalf("ClearStage failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(export.Path); !os.IsNotExist(err) {
		t.Fatalf("expected export artifact removed, stat err=%v", err)
	}
	if _, err := os.Stat(render.Path); err != nil {
		t.Fatalf("render artifact should survive: %v", err)
	}
	if _, err := os.Stat(combine.Path); err != nil {
		t.Fatalf("combine artifact should survive: %v", err)
	}
}

func TestStatsGroupsByStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	publishArtifact(t, store, "intro", cache.StageNarration, "k1", "12345")
	publishArtifact(t, store, "outro", cache.StageNarration, "k2", "123")
	publishArtifact(t, store, "intro", cache.StageRender, "k3", "1")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected two stages, got %#v", stats)
	}
	if stats[0].Stage != cache.StageNarration || stats[0].Artifacts != 2 || stats[0].Bytes != 8 {
		t.Fatalf("unexpected narration stats: %#v", stats[0])
	}
	if stats[1].Stage != cache.StageRender || stats[1].Artifacts != 1 || stats[1].Bytes != 1 {
		t.Fatalf("unexpected render stats: %#v", stats[1])
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCache(t, cfg)

	publishArtifact(t, store, "intro", cache.StageNarration, "persist-1", "audio")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenCache(t, cfg)
	record, err := reopened.Lookup(context.Background(), "intro", cache.StageNarration, "persist-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected record to survive reopen")
	}
}
