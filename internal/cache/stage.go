package cache

// Stage names one cacheable transformation in a segment's production
// pipeline. Keys are namespaced by (segment id, stage), so two stages can
// never collide even when their input sets overlap.
type Stage string

const (
	// StageSource is content generation/resolution.
	StageSource Stage = "source"
	// StageNarration is synthesized narration audio.
	StageNarration Stage = "narration"
	// StageRender is the silent visual render.
	StageRender Stage = "render"
	// StageCombine is the synchronized video+audio segment.
	StageCombine Stage = "combine"
	// StageExport is the final concatenated artifact.
	StageExport Stage = "export"
)

// SegmentStages lists the per-segment stages in dependency order.
var SegmentStages = []Stage{StageSource, StageNarration, StageRender, StageCombine}

// Known reports whether s names a defined stage.
func Known(s Stage) bool {
	switch s {
	case StageSource, StageNarration, StageRender, StageCombine, StageExport:
		return true
	}
	return false
}

// Downstream returns the per-segment stages invalidated by a forced rebuild
// of s, including s itself. Narration and render are siblings: forcing one
// never forces the other, only their join at combine.
func Downstream(s Stage) []Stage {
	switch s {
	case StageSource:
		return []Stage{StageSource, StageRender, StageCombine}
	case StageNarration:
		return []Stage{StageNarration, StageCombine}
	case StageRender:
		return []Stage{StageRender, StageCombine}
	case StageCombine:
		return []Stage{StageCombine}
	case StageExport:
		return []Stage{StageExport}
	default:
		return nil
	}
}
