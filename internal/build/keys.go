package build

import (
	"strings"

	"reel/internal/fingerprint"
	"reel/internal/project"
	"reel/internal/sources"
)

// keyer computes cache keys for one project. The maps fed to the digest are
// the invalidation contract: an input listed here invalidates the stage when
// it changes, an input omitted here never does. Narration text must never
// appear in a render key, and visual parameters must never appear in a
// narration key; the one sanctioned leak is the narration-derived duration.
type keyer struct {
	p *project.Project
}

// sourceKey fingerprints a resolved content source. Generator sources fold
// the frame geometry in because their scripts receive it; asset and
// placeholder identity is fully carried by the stamp.
func (k keyer) sourceKey(resolved sources.Resolved) string {
	in := map[string]string{
		"stage":    "source",
		"identity": resolved.Stamp,
	}
	if strings.HasPrefix(resolved.Stamp, "generator:") {
		in["width"] = fingerprint.Int(k.p.Resolution.Width)
		in["height"] = fingerprint.Int(k.p.Resolution.Height)
		in["fps"] = fingerprint.Int(k.p.FPS)
	}
	return fingerprint.Digest(in)
}

func (k keyer) narrationKey(text string) string {
	n := k.p.Narration
	return fingerprint.Digest(map[string]string{
		"stage":  "narration",
		"text":   fingerprint.Text(text),
		"engine": n.Engine,
		"voice":  n.Voice,
		"rate":   fingerprint.Float(n.Rate),
		"pitch":  fingerprint.Float(n.Pitch),
	})
}

// renderKey fingerprints a segment's visual render. sourceKeys are the
// already-computed source keys in declaration order (one per cell for
// grids). duration is the resolved playback duration; durationDerived marks
// it as narration-derived, which tags the input so an explicit 5s and a
// derived 5s do not alias.
func (k keyer) renderKey(seg *project.Segment, sourceKeys []string, duration float64, durationDerived bool) string {
	overlays := seg.Overlays.Resolve(k.p.Overlays)
	in := map[string]string{
		"stage":      "render",
		"kind":       string(seg.Kind),
		"resolution": k.p.Resolution.String(),
		"fps":        fingerprint.Int(k.p.FPS),
		"section":    seg.Section,
		"title_bar":  fingerprint.Bool(overlays.TitleBar),
		"subtitle":   fingerprint.Bool(overlays.Subtitle),
		"sources":    fingerprint.List(sourceKeys),
		"duration":   fingerprint.Float(duration),
		"derived":    fingerprint.Bool(durationDerived),
	}
	switch seg.Kind {
	case project.KindTitle:
		in["title"] = seg.Title
		in["title_subtitle"] = seg.Subtitle
		in["animation"] = seg.Animation
	case project.KindImage:
		in["effect"] = seg.Effect
	case project.KindVideo:
		in["codec"] = k.p.Export.Codec
	case project.KindGrid:
		in["columns"] = fingerprint.Int(seg.Columns)
		labels := make([]string, len(seg.Cells))
		for i := range seg.Cells {
			labels[i] = seg.Cells[i].Label
		}
		in["labels"] = fingerprint.List(labels)
	}
	return fingerprint.Digest(in)
}

// cellKey fingerprints one grid cell's sub-render.
func (k keyer) cellKey(cell *project.GridCell, sourceKey string, duration float64, cellWidth, cellHeight int) string {
	return fingerprint.Digest(map[string]string{
		"stage":    "render",
		"kind":     "cell",
		"label":    cell.Label,
		"source":   sourceKey,
		"width":    fingerprint.Int(cellWidth),
		"height":   fingerprint.Int(cellHeight),
		"fps":      fingerprint.Int(k.p.FPS),
		"duration": fingerprint.Float(duration),
	})
}

// combineKey fingerprints the audio/visual mux. It embeds the upstream keys,
// never their content: a hit upstream is sufficient to trust downstream.
func (k keyer) combineKey(renderKey, narrationKey string) string {
	s := k.p.Sync
	return fingerprint.Digest(map[string]string{
		"stage":         "combine",
		"render":        renderKey,
		"narration":     narrationKey,
		"strategy":      s.Strategy,
		"padding_start": fingerprint.Float(s.PaddingStart),
		"padding_end":   fingerprint.Float(s.PaddingEnd),
		"codec":         k.p.Export.Codec,
		"audio_codec":   k.p.Export.AudioCodec,
	})
}

// transitionKey fingerprints the blend clip between two adjacent segments.
func (k keyer) transitionKey(prevCombine, nextCombine, kind string, duration float64) string {
	return fingerprint.Digest(map[string]string{
		"stage":       "transition",
		"from":        prevCombine,
		"to":          nextCombine,
		"kind":        kind,
		"duration":    fingerprint.Float(duration),
		"resolution":  k.p.Resolution.String(),
		"fps":         fingerprint.Int(k.p.FPS),
		"codec":       k.p.Export.Codec,
		"audio_codec": k.p.Export.AudioCodec,
	})
}

// transitionDescriptor is the per-pair transition input to the export key.
func transitionDescriptor(kind string, duration float64) string {
	return kind + ":" + fingerprint.Float(duration)
}

// exportKey fingerprints the final concatenation: the ordered combine keys,
// the transition between each adjacent pair, and the export parameters.
// Reordering segments changes this key and nothing else.
func (k keyer) exportKey(combineKeys []string, transitions []string) string {
	return fingerprint.Digest(map[string]string{
		"stage":       "export",
		"segments":    fingerprint.List(combineKeys),
		"transitions": fingerprint.List(transitions),
		"codec":       k.p.Export.Codec,
		"audio_codec": k.p.Export.AudioCodec,
		"resolution":  k.p.Resolution.String(),
		"fps":         fingerprint.Int(k.p.FPS),
	})
}
