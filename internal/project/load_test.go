package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/services"
)

const sampleManifest = `
[project]
name = "demo"
resolution = "1080p"
fps = 30

[project.overlays]
title_bar = true
subtitle = false

[narration]
engine = "cli"
voice = "alba"
require = true

[sync]
strategy = "extend_video"
padding_end = 0.5

[export]
transition = "crossfade"

[[segment]]
id = "intro"
kind = "title"
title = "Neural SVG"
subtitle = "A walkthrough"
duration = 3.0
narration = "Welcome to the walkthrough."
section = "Introduction"

[[segment]]
id = "figure"
kind = "image"
source = { asset = "figures/arch.png" }
effect = "zoom"
narration = "The architecture in one picture."
transition = "wipe_right"

[[segment]]
id = "demo-clip"
kind = "video"
source = { asset = "/abs/clips/demo.mp4" }
narration = "Here it is running."

[[segment]]
id = "compare"
kind = "grid"
columns = 2
duration = 6.0
narration = "Before on the left, after on the right."
cells = [
  { source = { asset = "figures/before.png" }, label = "before" },
  { source = { asset = "figures/after.png" }, label = "after" },
]
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reel.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Name != "demo" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Resolution != Resolution1080 {
		t.Errorf("resolution = %v", p.Resolution)
	}
	if len(p.Segments) != 4 {
		t.Fatalf("segments = %d", len(p.Segments))
	}
	if !p.Overlays.TitleBar || p.Overlays.Subtitle {
		t.Errorf("overlay defaults = %+v", p.Overlays)
	}

	// Relative asset paths resolve against the manifest directory.
	figure, ok := p.Segment("figure")
	if !ok {
		t.Fatal("figure segment missing")
	}
	if !filepath.IsAbs(figure.Source.Asset) {
		t.Errorf("asset not resolved: %q", figure.Source.Asset)
	}
	if !strings.HasSuffix(figure.Source.Asset, filepath.Join("figures", "arch.png")) {
		t.Errorf("asset resolved wrong: %q", figure.Source.Asset)
	}

	// Absolute paths stay put.
	clip, _ := p.Segment("demo-clip")
	if clip.Source.Asset != "/abs/clips/demo.mp4" {
		t.Errorf("absolute asset rewritten: %q", clip.Source.Asset)
	}

	// Defaults applied.
	if p.Export.Codec != "libx264" || p.Export.AudioCodec != "aac" {
		t.Errorf("export defaults = %+v", p.Export)
	}
	intro, _ := p.Segment("intro")
	if intro.Animation != "fade_up" {
		t.Errorf("title animation default = %q", intro.Animation)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, `
[project]
name = "x"
fream_rate = 30
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestTransitionInto(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	kind, duration := p.TransitionInto(0)
	if kind != "crossfade" || duration != 0.5 {
		t.Errorf("transition 0 = %s/%v", kind, duration)
	}
	// Segment "figure" overrides the default for its outgoing edge.
	kind, _ = p.TransitionInto(1)
	if kind != "wipe_right" {
		t.Errorf("transition 1 = %s", kind)
	}
}

func TestValidateDuplicateID(t *testing.T) {
	path := writeManifest(t, `
[narration]
engine = "cli"

[[segment]]
id = "a"
kind = "title"
title = "One"
duration = 2.0
narration = "x"

[[segment]]
id = "a"
kind = "title"
title = "Two"
duration = 2.0
narration = "y"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("not a configuration error: %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("message: %v", err)
	}
}

func TestValidateMandatedNarration(t *testing.T) {
	path := writeManifest(t, `
[narration]
engine = "cli"
require = true

[[segment]]
id = "silent"
kind = "title"
title = "No voice"
duration = 2.0
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "narration is mandated") {
		t.Fatalf("expected mandated-narration error, got %v", err)
	}
}

func TestNarrationRequiredByDefaultWhenEngineSet(t *testing.T) {
	path := writeManifest(t, `
[narration]
engine = "cli"

[[segment]]
id = "silent"
kind = "title"
title = "No voice"
duration = 2.0
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "narration is mandated") {
		t.Fatalf("expected mandated-narration error, got %v", err)
	}

	// An explicit opt-out permits silent segments.
	path = writeManifest(t, `
[narration]
engine = "cli"
require = false

[[segment]]
id = "silent"
kind = "title"
title = "No voice"
duration = 2.0
`)
	if _, err := Load(path); err != nil {
		t.Fatalf("opt-out rejected: %v", err)
	}
}

func TestValidateMissingDuration(t *testing.T) {
	// No narration engine, so duration cannot be derived.
	path := writeManifest(t, `
[[segment]]
id = "card"
kind = "title"
title = "Card"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duration must be set") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestValidateSourceVariants(t *testing.T) {
	path := writeManifest(t, `
[narration]
engine = "cli"

[[segment]]
id = "pic"
kind = "image"
duration = 2.0
narration = "x"
source = { asset = "a.png", placeholder = "also set" }
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Fatalf("expected source variant error, got %v", err)
	}
}

func TestDurationDerived(t *testing.T) {
	seg := Segment{Kind: KindImage, Duration: 0}
	if !seg.DurationDerived() {
		t.Fatal("image with zero duration should derive from narration")
	}
	seg = Segment{Kind: KindVideo, Duration: 0}
	if seg.DurationDerived() {
		t.Fatal("video duration comes from the source file, never narration")
	}
	seg = Segment{Kind: KindTitle, Duration: 3}
	if seg.DurationDerived() {
		t.Fatal("explicit duration should win")
	}
}

func TestOverlayResolve(t *testing.T) {
	on := true
	off := false
	defaults := OverlaySettings{TitleBar: true, Subtitle: false}

	got := Overlays{}.Resolve(defaults)
	if got != defaults {
		t.Errorf("unset overrides changed defaults: %+v", got)
	}
	got = Overlays{TitleBar: &off, Subtitle: &on}.Resolve(defaults)
	if got.TitleBar || !got.Subtitle {
		t.Errorf("overrides not applied: %+v", got)
	}
}

func TestParseResolution(t *testing.T) {
	cases := map[string]Resolution{
		"draft":    ResolutionDraft,
		"1080p":    Resolution1080,
		"standard": Resolution1080,
		"":         Resolution1080,
		"2k":       Resolution2K,
		"high":     Resolution2K,
	}
	for name, want := range cases {
		got, err := ParseResolution(name)
		if err != nil {
			t.Fatalf("ParseResolution(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseResolution(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseResolution("4k"); err == nil {
		t.Fatal("expected error for unsupported resolution")
	}
	if ResolutionDraft.Mode() != "draft" || Resolution2K.Mode() != "high" || Resolution1080.Mode() != "standard" {
		t.Fatal("mode labels wrong")
	}
}
