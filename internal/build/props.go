package build

import (
	"strings"

	"reel/internal/project"
)

// segmentComposition maps a segment to the Node renderer composition that
// draws it. Video and grid segments never reach the renderer directly: video
// normalizes through ffmpeg and grids stack individually rendered cells.
func segmentComposition(seg *project.Segment) string {
	switch seg.Kind {
	case project.KindTitle:
		return "AnimatedTitle"
	case project.KindImage:
		if seg.Source.Type() == project.SourcePlaceholder {
			return "Placeholder"
		}
		if seg.Effect == "kenburns" {
			return "KenBurns"
		}
		return "ImageReveal"
	}
	return ""
}

// segmentProps assembles the composition's input props. Keys are camelCase
// to match the renderer project's prop schemas.
func segmentProps(p *project.Project, seg *project.Segment, sourcePath string) map[string]any {
	overlays := seg.Overlays.Resolve(p.Overlays)
	props := map[string]any{
		"section":     seg.Section,
		"scaleFactor": p.Resolution.ScaleFactor(),
		"titleBar":    overlays.TitleBar,
		"subtitleBar": overlays.Subtitle,
	}
	switch seg.Kind {
	case project.KindTitle:
		props["title"] = seg.Title
		props["subtitle"] = seg.Subtitle
		props["animation"] = seg.Animation
	case project.KindImage:
		if seg.Source.Type() == project.SourcePlaceholder {
			props["label"] = seg.Source.Placeholder
		} else {
			props["imagePath"] = sourcePath
			props["effect"] = seg.Effect
		}
	}
	return props
}

func cellProps(cell *project.GridCell, sourcePath string) map[string]any {
	props := map[string]any{
		"label": cell.Label,
	}
	if cell.Source.Type() == project.SourcePlaceholder {
		props["placeholder"] = cell.Source.Placeholder
	} else {
		props["imagePath"] = sourcePath
	}
	return props
}

// transitionComposition maps a manifest transition kind to the renderer
// composition and its direction prop. Kinds are validated at load time, so
// an unrecognized value here is a programming error; it falls back to fade.
func transitionComposition(kind string) (composition, direction string) {
	switch {
	case kind == "crossfade":
		return "TransitionFade", ""
	case strings.HasPrefix(kind, "slide_"):
		return "TransitionSlide", strings.TrimPrefix(kind, "slide_")
	case strings.HasPrefix(kind, "wipe_"):
		return "TransitionWipe", strings.TrimPrefix(kind, "wipe_")
	}
	return "TransitionFade", ""
}

func transitionProps(fromImage, toImage, direction string) map[string]any {
	props := map[string]any{
		"fromImagePath": fromImage,
		"toImagePath":   toImage,
	}
	if direction != "" {
		props["direction"] = direction
	}
	return props
}
