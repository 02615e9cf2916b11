package build

import (
	"sync"
	"time"

	"reel/internal/cache"
)

// StageOutcome records what happened to one stage during a build.
type StageOutcome string

const (
	// OutcomeHit means the cache already held the artifact.
	OutcomeHit StageOutcome = "hit"
	// OutcomeBuilt means a collaborator produced a fresh artifact.
	OutcomeBuilt StageOutcome = "built"
	// OutcomeFailed means the stage errored; downstream stages never ran.
	OutcomeFailed StageOutcome = "failed"
	// OutcomeSkipped means the stage does not apply to the segment.
	OutcomeSkipped StageOutcome = "skipped"
)

// SegmentResult is one segment's build outcome. Outcomes may be written
// from the segment's audio and visual goroutines concurrently; reads are
// safe once the build has joined them.
type SegmentResult struct {
	ID       string
	mu       sync.Mutex
	Outcomes map[cache.Stage]StageOutcome
	// CombineKey and CombinePath identify the finished segment artifact;
	// empty when the segment failed.
	CombineKey  string
	CombinePath string
	Duration    float64
	Err         error
}

func newSegmentResult(id string) *SegmentResult {
	return &SegmentResult{ID: id, Outcomes: make(map[cache.Stage]StageOutcome)}
}

func (r *SegmentResult) mark(stage cache.Stage, outcome StageOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes[stage] = outcome
}

// Failed reports whether any stage of the segment errored.
func (r *SegmentResult) Failed() bool {
	return r.Err != nil
}

// Report summarizes a whole build.
type Report struct {
	BuildID  string
	Started  time.Time
	Elapsed  time.Duration
	Segments []*SegmentResult
	// ExportPath is the final video location; empty when export failed or
	// was blocked by segment failures.
	ExportPath string
	// ExportHit is true when concatenation was served from cache.
	ExportHit bool
}

// FailedSegments returns the ids of segments whose pipelines errored, in
// project order.
func (r *Report) FailedSegments() []string {
	var ids []string
	for _, seg := range r.Segments {
		if seg.Failed() {
			ids = append(ids, seg.ID)
		}
	}
	return ids
}
