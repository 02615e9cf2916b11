package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"reel/internal/fingerprint"
	"reel/internal/project"
	"reel/internal/services"
)

// Resolved is a source made concrete for fingerprinting and rendering.
type Resolved struct {
	Type project.SourceType
	// Path is the absolute asset location; empty for placeholder and
	// generator sources, whose content materializes during the build.
	Path string
	// Stamp is the identity that flows into cache keys. For assets it is a
	// content stamp, so editing the file in place invalidates correctly; for
	// placeholders it is the label; for generators name and version.
	Stamp string
}

// Resolver turns manifest sources into resolved ones and runs generators.
type Resolver struct {
	registry *Registry
}

// NewResolver seeds a resolver with the project's declared generators on top
// of any programmatically registered ones.
func NewResolver(registry *Registry, specs []project.GeneratorSpec) (*Resolver, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	for _, spec := range specs {
		if err := registry.Register(spec.Name, NewScriptGenerator(spec)); err != nil {
			return nil, err
		}
	}
	return &Resolver{registry: registry}, nil
}

// Resolve checks availability and computes the identity stamp for a source.
// Missing assets and unknown generators are reported here, before any stage
// spends work on the segment.
func (r *Resolver) Resolve(src project.Source) (Resolved, error) {
	switch src.Type() {
	case project.SourceAsset:
		stamp, err := fingerprint.File(src.Asset)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Resolved{}, fmt.Errorf("asset %s does not exist: %w", src.Asset, services.ErrSourceUnavailable)
			}
			return Resolved{}, fmt.Errorf("stamp asset %s: %w", src.Asset, err)
		}
		return Resolved{Type: project.SourceAsset, Path: src.Asset, Stamp: "asset:" + stamp}, nil
	case project.SourcePlaceholder:
		return Resolved{Type: project.SourcePlaceholder, Stamp: "placeholder:" + fingerprint.Text(src.Placeholder)}, nil
	case project.SourceGenerator:
		gen, ok := r.registry.Lookup(src.Generator)
		if !ok {
			return Resolved{}, fmt.Errorf("generator %q is not declared: %w", src.Generator, services.ErrConfiguration)
		}
		return Resolved{Type: project.SourceGenerator, Stamp: "generator:" + src.Generator + ":" + gen.Version()}, nil
	default:
		return Resolved{}, fmt.Errorf("source is empty: %w", services.ErrConfiguration)
	}
}

// Generate materializes a generator source into dest.
func (r *Resolver) Generate(ctx context.Context, name string, dest string, params GenerateParams) error {
	gen, ok := r.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("generator %q is not declared: %w", name, services.ErrConfiguration)
	}
	if err := gen.Generate(ctx, dest, params); err != nil {
		return fmt.Errorf("generator %s: %w", name, err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("generator %s produced no output: %w", name, services.ErrSourceUnavailable)
	}
	if info.Size() == 0 {
		return fmt.Errorf("generator %s produced empty output: %w", name, services.ErrSourceUnavailable)
	}
	return nil
}

// GeneratorExtension returns the file extension (without dot) the named
// generator produces.
func (r *Resolver) GeneratorExtension(name string) (string, error) {
	gen, ok := r.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("generator %q is not declared: %w", name, services.ErrConfiguration)
	}
	return gen.Extension(), nil
}

// GenerateParams carries project facts a generator may substitute into its
// invocation.
type GenerateParams struct {
	Width  int
	Height int
	FPS    int
}

// Generator produces content at a destination path.
type Generator interface {
	// Version is the identity that participates in cache keys.
	Version() string
	// Extension is the produced file type without the dot, e.g. "png".
	Extension() string
	Generate(ctx context.Context, dest string, params GenerateParams) error
}

// Registry maps generator names to implementations.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register installs a generator under a name. Duplicate names are rejected
// so a manifest cannot silently shadow a built-in.
func (r *Registry) Register(name string, gen Generator) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("generator name is empty: %w", services.ErrConfiguration)
	}
	if _, exists := r.generators[name]; exists {
		return fmt.Errorf("generator %q registered twice: %w", name, services.ErrConfiguration)
	}
	r.generators[name] = gen
	return nil
}

// Lookup returns the generator registered under name.
func (r *Registry) Lookup(name string) (Generator, bool) {
	gen, ok := r.generators[name]
	return gen, ok
}
