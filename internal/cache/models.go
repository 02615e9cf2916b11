package cache

import "time"

// ExportScope is the pseudo segment id under which final concatenation
// artifacts are recorded. Project segment ids are sanitized into cache
// paths, so the double underscore cannot collide with a real segment.
const ExportScope = "__export__"

// Record is one persisted stage artifact. Records are owned exclusively by
// the Store; the orchestrator only requests lookups and insertions.
type Record struct {
	ID        int64
	SegmentID string
	Stage     Stage
	Key       string
	// Path is the artifact's absolute location on disk.
	Path string
	// DurationSeconds is stage metadata: audio duration for narration
	// records, video duration for render/combine records.
	DurationSeconds float64
	Width           int
	Height          int
	CreatedAt       time.Time
}

// State classifies a (segment, stage) tuple against the key the current
// configuration demands.
type State string

const (
	// StateHit means an artifact exists for the current key.
	StateHit State = "hit"
	// StateStale means artifacts exist for this tuple but none match the
	// current key; the next build will regenerate.
	StateStale State = "stale"
	// StateAbsent means nothing has ever been cached for this tuple.
	StateAbsent State = "absent"
	// StateUnknown means the current key cannot be computed yet (the
	// narration-derived duration is not cached, so the render key is not
	// known until narration synthesizes).
	StateUnknown State = "unknown"
	// StateSkipped means the stage does not apply to this segment kind.
	StateSkipped State = "skipped"
)
