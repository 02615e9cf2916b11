package project

import (
	"fmt"
	"strings"

	"reel/internal/services"
)

var transitionKinds = map[string]struct{}{
	"none":        {},
	"crossfade":   {},
	"slide_left":  {},
	"slide_right": {},
	"slide_up":    {},
	"slide_down":  {},
	"wipe_left":   {},
	"wipe_right":  {},
	"wipe_up":     {},
	"wipe_down":   {},
}

// Validate checks the whole project and reports every problem at once.
// Validation runs before any stage executes; a failure here is a
// configuration error, never retried.
func (p *Project) Validate() error {
	var problems []string

	if len(p.Segments) == 0 {
		problems = append(problems, "project has no segments")
	}

	seen := make(map[string]struct{}, len(p.Segments))
	for i := range p.Segments {
		seg := &p.Segments[i]
		label := seg.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if strings.TrimSpace(seg.ID) == "" {
			problems = append(problems, fmt.Sprintf("segment %s: id must be set", label))
		} else if _, dup := seen[seg.ID]; dup {
			problems = append(problems, fmt.Sprintf("segment %s: duplicate id", label))
		} else {
			seen[seg.ID] = struct{}{}
		}

		if !KnownKind(seg.Kind) {
			problems = append(problems, fmt.Sprintf("segment %s: unknown kind %q", label, seg.Kind))
			continue
		}

		problems = append(problems, p.validateKind(seg, label)...)

		if p.Narration.Require && !seg.HasNarration() {
			problems = append(problems, fmt.Sprintf("segment %s: narration is mandated but empty", label))
		}
		if seg.HasNarration() && p.Narration.Require && !p.Narration.Enabled() {
			problems = append(problems, fmt.Sprintf("segment %s: narration present but no engine selected", label))
		}
		if seg.Transition != "" {
			if _, ok := transitionKinds[seg.Transition]; !ok {
				problems = append(problems, fmt.Sprintf("segment %s: unknown transition %q", label, seg.Transition))
			}
		}
	}

	genNames := make(map[string]struct{}, len(p.Generators))
	for i := range p.Generators {
		gen := &p.Generators[i]
		if strings.TrimSpace(gen.Name) == "" {
			problems = append(problems, fmt.Sprintf("generator #%d: name must be set", i+1))
			continue
		}
		if _, dup := genNames[gen.Name]; dup {
			problems = append(problems, fmt.Sprintf("generator %s: duplicate name", gen.Name))
		}
		genNames[gen.Name] = struct{}{}
		if strings.TrimSpace(gen.Command) == "" {
			problems = append(problems, fmt.Sprintf("generator %s: command must be set", gen.Name))
		} else if !strings.Contains(gen.Command, "{output}") {
			problems = append(problems, fmt.Sprintf("generator %s: command must reference {output}", gen.Name))
		}
		if strings.TrimSpace(gen.Version) == "" {
			problems = append(problems, fmt.Sprintf("generator %s: version must be set", gen.Name))
		}
	}

	switch p.Sync.Strategy {
	case "extend_video", "extend_audio", "truncate":
	default:
		problems = append(problems, fmt.Sprintf("sync.strategy %q is not extend_video, extend_audio, or truncate", p.Sync.Strategy))
	}
	if p.Export.Transition != "" {
		if _, ok := transitionKinds[p.Export.Transition]; !ok {
			problems = append(problems, fmt.Sprintf("export.transition %q is unknown", p.Export.Transition))
		}
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "", "", strings.Join(problems, "; "), nil)
	}
	return nil
}

func (p *Project) validateKind(seg *Segment, label string) []string {
	var problems []string
	switch seg.Kind {
	case KindTitle:
		if strings.TrimSpace(seg.Title) == "" {
			problems = append(problems, fmt.Sprintf("segment %s: title text must be set", label))
		}
		if seg.Source.Type() != SourceNone {
			problems = append(problems, fmt.Sprintf("segment %s: title segments take no source", label))
		}
		problems = append(problems, requireDuration(p, seg, label)...)
	case KindImage:
		problems = append(problems, requireSource(seg.Source, label)...)
		problems = append(problems, requireDuration(p, seg, label)...)
	case KindVideo:
		problems = append(problems, requireSource(seg.Source, label)...)
		if seg.Source.Type() == SourcePlaceholder {
			problems = append(problems, fmt.Sprintf("segment %s: video segments cannot use a placeholder source", label))
		}
		// Duration comes from the source file itself.
		if seg.Duration < 0 {
			problems = append(problems, fmt.Sprintf("segment %s: duration must not be negative", label))
		}
	case KindGrid:
		if len(seg.Cells) < 2 {
			problems = append(problems, fmt.Sprintf("segment %s: grid needs at least 2 cells", label))
		}
		for j := range seg.Cells {
			cellLabel := fmt.Sprintf("%s cell %d", label, j+1)
			problems = append(problems, requireSource(seg.Cells[j].Source, cellLabel)...)
		}
		problems = append(problems, requireDuration(p, seg, label)...)
	}
	return problems
}

func requireSource(src Source, label string) []string {
	switch src.variantCount() {
	case 0:
		return []string{fmt.Sprintf("segment %s: a content source must be set", label)}
	case 1:
		return nil
	default:
		return []string{fmt.Sprintf("segment %s: source must set exactly one of asset, placeholder, generator", label)}
	}
}

// requireDuration enforces the duration contract for title/image/grid
// segments: either an explicit positive duration, or narration to derive it
// from.
func requireDuration(p *Project, seg *Segment, label string) []string {
	if seg.Duration > 0 {
		return nil
	}
	if seg.Duration < 0 {
		return []string{fmt.Sprintf("segment %s: duration must not be negative", label)}
	}
	if seg.HasNarration() && p.Narration.Enabled() {
		return nil
	}
	return []string{fmt.Sprintf("segment %s: duration must be set (or narration provided to derive it)", label)}
}
