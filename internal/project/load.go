package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// manifest is the on-disk TOML shape of a project file.
type manifest struct {
	Project struct {
		Name       string          `toml:"name"`
		Resolution string          `toml:"resolution"`
		FPS        int             `toml:"fps"`
		Overlays   OverlaySettings `toml:"overlays"`
	} `toml:"project"`
	Narration struct {
		Engine string  `toml:"engine"`
		Voice  string  `toml:"voice"`
		Rate   float64 `toml:"rate"`
		Pitch  float64 `toml:"pitch"`
		// Pointer so an absent key can default to true for narrated
		// projects.
		Require *bool `toml:"require"`
	} `toml:"narration"`
	Sync      SyncSettings      `toml:"sync"`
	Export     ExportSettings    `toml:"export"`
	Generators []GeneratorSpec   `toml:"generator"`
	Segments   []Segment         `toml:"segment"`
}

// Load reads, decodes, and validates a project manifest. Relative asset
// paths are resolved against the manifest's directory so builds behave the
// same from any working directory.
func Load(path string) (*Project, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project manifest: %w", err)
	}
	defer file.Close()

	var m manifest
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse project manifest: unknown fields:\n%s", strict.String())
		}
		return nil, fmt.Errorf("parse project manifest: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	resolution, err := ParseResolution(m.Project.Resolution)
	if err != nil {
		return nil, fmt.Errorf("project manifest: %w", err)
	}

	p := &Project{
		Name:       m.Project.Name,
		Resolution: resolution,
		FPS:        m.Project.FPS,
		Narration: NarrationSettings{
			Engine: m.Narration.Engine,
			Voice:  m.Narration.Voice,
			Rate:   m.Narration.Rate,
			Pitch:  m.Narration.Pitch,
		},
		Sync:       m.Sync,
		Export:     m.Export,
		Overlays:   m.Project.Overlays,
		Generators: m.Generators,
		Segments:   m.Segments,
		Dir:        filepath.Dir(abs),
	}
	if m.Narration.Require != nil {
		p.Narration.Require = *m.Narration.Require
	} else {
		p.Narration.Require = p.Narration.Enabled()
	}

	applyDefaults(p)
	resolveAssetPaths(p)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func applyDefaults(p *Project) {
	if p.Name == "" {
		p.Name = filepath.Base(p.Dir)
	}
	if p.FPS <= 0 {
		p.FPS = 30
	}
	if p.Narration.Rate == 0 {
		p.Narration.Rate = 1.0
	}
	if p.Sync.Strategy == "" {
		p.Sync.Strategy = "extend_video"
	}
	if p.Sync.PaddingEnd == 0 && p.Sync.PaddingStart == 0 {
		p.Sync.PaddingEnd = 0.5
	}
	if p.Export.Codec == "" {
		p.Export.Codec = "libx264"
	}
	if p.Export.AudioCodec == "" {
		p.Export.AudioCodec = "aac"
	}
	for i := range p.Generators {
		if p.Generators[i].Extension == "" {
			p.Generators[i].Extension = "png"
		}
	}
	for i := range p.Segments {
		seg := &p.Segments[i]
		if seg.Kind == KindTitle && seg.Animation == "" {
			seg.Animation = "fade_up"
		}
		if seg.Kind == KindImage && seg.Effect == "" {
			seg.Effect = "fade"
		}
		if seg.Kind == KindGrid && seg.Columns <= 0 {
			seg.Columns = 2
		}
	}
}

func resolveAssetPaths(p *Project) {
	for i := range p.Segments {
		seg := &p.Segments[i]
		resolveSource(&seg.Source, p.Dir)
		for j := range seg.Cells {
			resolveSource(&seg.Cells[j].Source, p.Dir)
		}
	}
}

func resolveSource(src *Source, dir string) {
	path := strings.TrimSpace(src.Asset)
	if path == "" || filepath.IsAbs(path) || isRemote(path) {
		return
	}
	src.Asset = filepath.Join(dir, path)
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
