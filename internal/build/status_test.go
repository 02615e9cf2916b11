package build

import (
	"context"
	"testing"

	"reel/internal/cache"
	"reel/internal/project"
)

func TestStatusReportsUnknownUntilNarrationExists(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	p := narratedProject(
		project.Segment{ID: "intro", Kind: project.KindTitle, Title: "Welcome", Narration: "hello"},
	)

	// The segment's duration is adopted from audio that has never been
	// synthesized, so the visual keys cannot be computed yet.
	status, err := b.Status(context.Background(), p)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	states := status.Segments[0].States
	if states[cache.StageNarration] != cache.StateAbsent {
		t.Fatalf("narration state = %s, want absent", states[cache.StageNarration])
	}
	if states[cache.StageRender] != cache.StateUnknown || states[cache.StageCombine] != cache.StateUnknown {
		t.Fatalf("render/combine states = %s/%s, want unknown/unknown",
			states[cache.StageRender], states[cache.StageCombine])
	}
	if status.Export != cache.StateUnknown {
		t.Fatalf("export state = %s, want unknown", status.Export)
	}

	if _, err := b.Build(context.Background(), p, Options{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	status, err = b.Status(context.Background(), p)
	if err != nil {
		t.Fatalf("Status after build: %v", err)
	}
	states = status.Segments[0].States
	for _, stage := range []cache.Stage{cache.StageNarration, cache.StageRender, cache.StageCombine} {
		if states[stage] != cache.StateHit {
			t.Fatalf("%s state = %s after build, want hit", stage, states[stage])
		}
	}
	if states[cache.StageSource] != cache.StateSkipped {
		t.Fatalf("source state = %s for title segment, want skipped", states[cache.StageSource])
	}
	if status.Export != cache.StateHit {
		t.Fatalf("export state = %s after build, want hit", status.Export)
	}
}

func TestStatusFlagsStaleStagesAfterEdit(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	p := silentProject(
		project.Segment{ID: "intro", Kind: project.KindTitle, Title: "Welcome", Duration: 4},
	)
	if _, err := b.Build(context.Background(), p, Options{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	p.Segments[0].Title = "Reworked"
	status, err := b.Status(context.Background(), p)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	states := status.Segments[0].States
	if states[cache.StageRender] != cache.StateStale {
		t.Fatalf("render state = %s after title edit, want stale", states[cache.StageRender])
	}
	if states[cache.StageCombine] != cache.StateStale {
		t.Fatalf("combine state = %s after title edit, want stale", states[cache.StageCombine])
	}
	if status.Export != cache.StateStale {
		t.Fatalf("export state = %s after title edit, want stale", status.Export)
	}
}
