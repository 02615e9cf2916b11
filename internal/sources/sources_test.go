package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/project"
	"reel/internal/services"
)

func newResolver(t *testing.T, specs ...project.GeneratorSpec) *Resolver {
	t.Helper()
	resolver, err := NewResolver(NewRegistry(), specs)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func TestResolveAssetStampTracksContent(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "chart.png")
	if err := os.WriteFile(asset, []byte("image-v1"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	resolver := newResolver(t)
	first, err := resolver.Resolve(project.Source{Asset: asset})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.Type != project.SourceAsset || first.Path != asset {
		t.Fatalf("unexpected resolution: %#v", first)
	}

	if err := os.WriteFile(asset, []byte("image-v2-edited"), 0o644); err != nil {
		t.Fatalf("rewrite asset: %v", err)
	}
	second, err := resolver.Resolve(project.Source{Asset: asset})
	if err != nil {
		t.Fatalf("Resolve after edit: %v", err)
	}
	if first.Stamp == second.Stamp {
		t.Fatal("expected stamp to change when asset content changes")
	}
}

func TestResolveMissingAssetIsSourceUnavailable(t *testing.T) {
	resolver := newResolver(t)
	_, err := resolver.Resolve(project.Source{Asset: "/nonexistent/chart.png"})
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestResolvePlaceholder(t *testing.T) {
	resolver := newResolver(t)
	resolved, err := resolver.Resolve(project.Source{Placeholder: "Coming soon"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Type != project.SourcePlaceholder {
		t.Fatalf("unexpected type: %s", resolved.Type)
	}
	if !strings.HasPrefix(resolved.Stamp, "placeholder:") {
		t.Fatalf("unexpected stamp: %s", resolved.Stamp)
	}
}

func TestResolveGeneratorUsesDeclaredVersion(t *testing.T) {
	resolver := newResolver(t, project.GeneratorSpec{
		Name:    "chart",
		Command: "render-chart --out {output}",
		Version: "v3",
	})
	resolved, err := resolver.Resolve(project.Source{Generator: "chart"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Stamp != "generator:chart:v3" {
		t.Fatalf("unexpected stamp: %s", resolved.Stamp)
	}
}

func TestResolveUnknownGeneratorIsConfigurationError(t *testing.T) {
	resolver := newResolver(t)
	_, err := resolver.Resolve(project.Source{Generator: "mystery"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	spec := project.GeneratorSpec{Name: "chart", Command: "x {output}", Version: "v1"}
	if err := registry.Register("chart", NewScriptGenerator(spec)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := registry.Register("chart", NewScriptGenerator(spec)); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestScriptGeneratorSubstitutesAndRuns(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "gen.sh")
	stub := `#!/bin/sh
echo "$2x$3@$4" > "$1"
`
	if err := os.WriteFile(script, []byte(stub), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	resolver := newResolver(t, project.GeneratorSpec{
		Name:    "scene",
		Command: script + " {output} {width} {height} {fps}",
		Version: "v1",
	})

	dest := filepath.Join(dir, "scene.png")
	err := resolver.Generate(context.Background(), "scene", dest, GenerateParams{Width: 1920, Height: 1080, FPS: 30})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.TrimSpace(string(data)) != "1920x1080@30" {
		t.Fatalf("unexpected output: %q", data)
	}
}

func TestGenerateFailsWhenScriptWritesNothing(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "noop.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	resolver := newResolver(t, project.GeneratorSpec{
		Name:    "noop",
		Command: script + " {output}",
		Version: "v1",
	})
	err := resolver.Generate(context.Background(), "noop", filepath.Join(dir, "missing.png"), GenerateParams{})
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
