package project

import "strings"

// Kind identifies what a segment renders. The set is closed; the build
// planner switches over it exhaustively.
type Kind string

const (
	KindTitle Kind = "title"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindGrid  Kind = "grid"
)

// KnownKind reports whether k is one of the supported segment kinds.
func KnownKind(k Kind) bool {
	switch k {
	case KindTitle, KindImage, KindVideo, KindGrid:
		return true
	}
	return false
}

// Source describes where a segment's visual content comes from. Exactly one
// field may be set.
type Source struct {
	// Asset is a path to an image or video file. Relative paths are
	// resolved against the manifest directory at load time.
	Asset string `toml:"asset"`
	// Placeholder is a label rendered on a flat background; useful while
	// real content is still being produced.
	Placeholder string `toml:"placeholder"`
	// Generator names a registered generator function. The name is the
	// source's entire fingerprint identity: bump it when the function's
	// output changes, because the function body itself is not hashable.
	Generator string `toml:"generator"`
}

// SourceType tags the active variant of a Source.
type SourceType string

const (
	SourceAsset       SourceType = "asset"
	SourcePlaceholder SourceType = "placeholder"
	SourceGenerator   SourceType = "generator"
	SourceNone        SourceType = "none"
)

// Type returns the active variant, or SourceNone when the source is empty.
// Sources with more than one variant set are rejected by Validate.
func (s Source) Type() SourceType {
	switch {
	case strings.TrimSpace(s.Asset) != "":
		return SourceAsset
	case strings.TrimSpace(s.Placeholder) != "":
		return SourcePlaceholder
	case strings.TrimSpace(s.Generator) != "":
		return SourceGenerator
	}
	return SourceNone
}

// Identity returns the variant's declared identity: the asset path, the
// placeholder text, or the generator key.
func (s Source) Identity() string {
	switch s.Type() {
	case SourceAsset:
		return s.Asset
	case SourcePlaceholder:
		return s.Placeholder
	case SourceGenerator:
		return s.Generator
	}
	return ""
}

func (s Source) variantCount() int {
	count := 0
	for _, v := range []string{s.Asset, s.Placeholder, s.Generator} {
		if strings.TrimSpace(v) != "" {
			count++
		}
	}
	return count
}

// Overlays carries per-segment overlay toggles. Nil means "inherit the
// project default".
type Overlays struct {
	TitleBar *bool `toml:"title_bar"`
	Subtitle *bool `toml:"subtitle"`
}

// OverlaySettings is a fully resolved overlay configuration.
type OverlaySettings struct {
	TitleBar bool `toml:"title_bar"`
	Subtitle bool `toml:"subtitle"`
}

// Resolve applies segment overrides on top of the project defaults.
func (o Overlays) Resolve(defaults OverlaySettings) OverlaySettings {
	out := defaults
	if o.TitleBar != nil {
		out.TitleBar = *o.TitleBar
	}
	if o.Subtitle != nil {
		out.Subtitle = *o.Subtitle
	}
	return out
}

// GridCell is one panel of a grid segment.
type GridCell struct {
	Source Source `toml:"source"`
	Label  string `toml:"label"`
}

// Segment is one playable unit of the final video. Segments are read-only
// inputs to the build pipeline: the ID is the namespace root for every cache
// key the segment produces and must never change once artifacts exist.
type Segment struct {
	ID        string  `toml:"id"`
	Kind      Kind    `toml:"kind"`
	Narration string  `toml:"narration"`
	Section   string  `toml:"section"`
	Duration  float64 `toml:"duration"`
	// Transition into the following segment; empty means the export
	// default. The last segment's value is ignored.
	Transition string   `toml:"transition"`
	Overlays   Overlays `toml:"overlays"`

	// Title fields.
	Title     string `toml:"title"`
	Subtitle  string `toml:"subtitle"`
	Animation string `toml:"animation"`

	// Image and video fields.
	Source Source `toml:"source"`
	Effect string `toml:"effect"`

	// Grid fields.
	Columns int        `toml:"columns"`
	Cells   []GridCell `toml:"cells"`
}

// HasNarration reports whether the segment carries non-empty narration text.
func (s *Segment) HasNarration() bool {
	return strings.TrimSpace(s.Narration) != ""
}

// DurationDerived reports whether the segment's duration must be adopted
// from synthesized narration audio. When true the resolved duration becomes
// an input to the visual render fingerprint, so narration edits that change
// audio length correctly re-render visuals too.
func (s *Segment) DurationDerived() bool {
	return s.Duration <= 0 && s.Kind != KindVideo
}

// GeneratorSpec declares a script-backed content generator in the manifest.
// The command template is substituted per invocation: {output}, {width},
// {height} and {fps} are recognized.
type GeneratorSpec struct {
	Name    string `toml:"name"`
	Command string `toml:"command"`
	// Version participates in content fingerprints: bump it when the
	// script's output changes, because the script body is not hashed.
	Version string `toml:"version"`
	// Extension is the output file type the script produces, without the
	// dot. Defaults to png.
	Extension      string `toml:"extension"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NarrationSettings selects and parameterizes the narration engine for a
// whole project.
type NarrationSettings struct {
	Engine string  `toml:"engine"`
	Voice  string  `toml:"voice"`
	Rate   float64 `toml:"rate"`
	Pitch  float64 `toml:"pitch"`
	// Require mandates non-empty narration on every segment. On by
	// default; manifests can opt out for silent projects.
	Require bool `toml:"require"`
}

// Enabled reports whether narration synthesis runs at all.
func (n NarrationSettings) Enabled() bool {
	return n.Engine != "" && n.Engine != "none"
}

// SyncSettings controls how audio and video durations are reconciled at the
// combine stage.
type SyncSettings struct {
	// Strategy is one of extend_video, extend_audio, truncate.
	Strategy     string  `toml:"strategy"`
	PaddingStart float64 `toml:"padding_start"`
	PaddingEnd   float64 `toml:"padding_end"`
}

// PaddedDuration returns the effective narration duration after padding.
func (s SyncSettings) PaddedDuration(audioSeconds float64) float64 {
	return s.PaddingStart + audioSeconds + s.PaddingEnd
}

// ExportSettings parameterize the final concatenation.
type ExportSettings struct {
	Codec              string  `toml:"codec"`
	AudioCodec         string  `toml:"audio_codec"`
	Transition         string  `toml:"transition"`
	TransitionDuration float64 `toml:"transition_duration"`
}

// Project is an ordered sequence of segments plus global configuration. It
// is constructed once by Load and consumed read-only by the orchestrator.
type Project struct {
	Name       string
	Resolution Resolution
	FPS        int
	Narration  NarrationSettings
	Sync       SyncSettings
	Export     ExportSettings
	Overlays   OverlaySettings
	Generators []GeneratorSpec
	Segments   []Segment

	// Dir is the manifest's directory; asset paths were resolved against
	// it during load.
	Dir string
}

// Segment returns the segment with the given id.
func (p *Project) Segment(id string) (*Segment, bool) {
	for i := range p.Segments {
		if p.Segments[i].ID == id {
			return &p.Segments[i], true
		}
	}
	return nil, false
}

// SegmentIDs returns ids in playback order.
func (p *Project) SegmentIDs() []string {
	ids := make([]string, len(p.Segments))
	for i := range p.Segments {
		ids[i] = p.Segments[i].ID
	}
	return ids
}

// TransitionInto returns the transition specification between segment i and
// i+1, falling back to the export default.
func (p *Project) TransitionInto(i int) (kind string, duration float64) {
	kind = p.Export.Transition
	if i >= 0 && i < len(p.Segments) && strings.TrimSpace(p.Segments[i].Transition) != "" {
		kind = p.Segments[i].Transition
	}
	duration = p.Export.TransitionDuration
	if duration <= 0 {
		duration = 0.5
	}
	if kind == "" {
		kind = "none"
	}
	return kind, duration
}
