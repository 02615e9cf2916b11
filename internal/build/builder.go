package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reel/internal/cache"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/project"
	"reel/internal/services"
	"reel/internal/sources"
)

// Builder orchestrates the staged production of a project: content sources,
// narration audio, visual renders, per-segment combines, and the final
// concatenation. All persistence goes through the cache store; the builder
// itself holds no state between runs.
type Builder struct {
	cfg      *config.Config
	store    *cache.Store
	resolver *sources.Resolver
	collab   Collaborators
	logger   *slog.Logger
}

// New constructs a builder. Every collaborator must be populated.
func New(cfg *config.Config, store *cache.Store, resolver *sources.Resolver, collab Collaborators, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		collab:   collab,
		logger:   logging.NewComponentLogger(logger, "build"),
	}
}

// Options tune one build invocation.
type Options struct {
	// ForceStages bypasses cache lookups for the named stages and every
	// stage downstream of them.
	ForceStages []cache.Stage
	// ForceSegments limits forcing to the named segments; empty means all
	// segments.
	ForceSegments []string
	// OutputPath overrides the default export destination.
	OutputPath string
}

type forceSet struct {
	stages   map[cache.Stage]bool
	segments map[string]bool
}

func newForceSet(opts Options) (*forceSet, error) {
	fs := &forceSet{
		stages:   make(map[cache.Stage]bool),
		segments: make(map[string]bool),
	}
	for _, stage := range opts.ForceStages {
		if !cache.Known(stage) {
			return nil, services.Wrap(services.ErrConfiguration, "", "", fmt.Sprintf("unknown stage %q", stage), nil)
		}
		for _, s := range cache.Downstream(stage) {
			fs.stages[s] = true
		}
	}
	for _, id := range opts.ForceSegments {
		fs.segments[id] = true
	}
	return fs, nil
}

// forced reports whether the stage must bypass its cache lookup for the
// given scope. Nested scopes like "seg/cell-0" inherit the root segment's
// forcing.
func (f *forceSet) forced(scope string, stage cache.Stage) bool {
	if !f.stages[stage] {
		return false
	}
	if len(f.segments) == 0 {
		return true
	}
	root, _, _ := strings.Cut(scope, "/")
	return f.segments[root]
}

// exportForced reports whether the concatenation must rerun. Any forced
// stage implies it: export sits downstream of everything.
func (f *forceSet) exportForced() bool {
	return len(f.stages) > 0
}

// Build runs every segment pipeline, then the final concatenation. The
// returned report is populated even when the build fails, so callers can
// show per-segment outcomes alongside the error.
func (b *Builder) Build(ctx context.Context, p *project.Project, opts Options) (*Report, error) {
	started := time.Now()
	report := &Report{BuildID: uuid.NewString(), Started: started}

	force, err := newForceSet(opts)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(b.cfg.Paths.CacheDir, "build.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another build is already running against this cache")
	}
	defer func() { _ = lock.Unlock() }()

	b.logger.Info("build started",
		logging.String(logging.FieldBuildID, report.BuildID),
		logging.String("project", p.Name),
		logging.Int("segments", len(p.Segments)),
	)

	concurrency := b.cfg.Workflow.BuildConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	results := make([]*SegmentResult, len(p.Segments))
	var wg sync.WaitGroup
	for i := range p.Segments {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = b.buildSegment(ctx, p, &p.Segments[i], force)
		}(i)
	}
	wg.Wait()
	report.Segments = results

	// A failed segment blocks the whole export: the final video either
	// contains every segment or does not exist.
	if failed := report.FailedSegments(); len(failed) > 0 {
		report.Elapsed = time.Since(started)
		for _, res := range results {
			if res.Failed() {
				b.logger.Error("segment failed",
					logging.String(logging.FieldBuildID, report.BuildID),
					logging.String(logging.FieldSegmentID, res.ID),
					logging.Error(res.Err),
				)
			}
		}
		return report, services.Wrap(services.ErrConcat, "", string(cache.StageExport),
			"export blocked by failing segments: "+strings.Join(failed, ", "), nil)
	}

	if err := b.export(ctx, p, report, force, opts.OutputPath); err != nil {
		report.Elapsed = time.Since(started)
		return report, err
	}

	report.Elapsed = time.Since(started)
	b.logger.Info("build finished",
		logging.String(logging.FieldBuildID, report.BuildID),
		logging.String(logging.FieldArtifact, report.ExportPath),
		logging.Duration(logging.FieldDuration, report.Elapsed),
	)
	return report, nil
}

// buildSegment drives one segment to a valid combine artifact. The audio
// path and the visual path are independent unless the segment's duration is
// narration-derived, in which case the render key cannot be computed until
// the audio exists.
func (b *Builder) buildSegment(ctx context.Context, p *project.Project, seg *project.Segment, force *forceSet) *SegmentResult {
	res := newSegmentResult(seg.ID)

	narrate := seg.HasNarration() && p.Narration.Enabled()
	if !narrate {
		res.mark(cache.StageNarration, OutcomeSkipped)
	}

	var (
		narrRec   *cache.Record
		narrKey   string
		renderRec *cache.Record
		renderKey string
	)

	if narrate && seg.DurationDerived() {
		rec, key, err := b.ensureNarration(ctx, p, seg, res, force)
		if err != nil {
			res.Err = err
			return res
		}
		narrRec, narrKey = rec, key

		duration := p.Sync.PaddedDuration(rec.DurationSeconds)
		renderRec, renderKey, err = b.ensureRender(ctx, p, seg, res, duration, true, force)
		if err != nil {
			res.Err = err
			return res
		}
	} else {
		type narrOut struct {
			rec *cache.Record
			key string
			err error
		}
		narrCh := make(chan narrOut, 1)
		if narrate {
			go func() {
				rec, key, err := b.ensureNarration(ctx, p, seg, res, force)
				narrCh <- narrOut{rec: rec, key: key, err: err}
			}()
		}

		var renderErr error
		renderRec, renderKey, renderErr = b.ensureRender(ctx, p, seg, res, seg.Duration, false, force)

		if narrate {
			out := <-narrCh
			if out.err != nil {
				res.Err = out.err
				return res
			}
			narrRec, narrKey = out.rec, out.key
		}
		if renderErr != nil {
			res.Err = renderErr
			return res
		}
	}

	combineRec, combineKey, err := b.ensureCombine(ctx, p, seg, res, renderRec, renderKey, narrRec, narrKey, force)
	if err != nil {
		res.Err = err
		return res
	}
	res.CombineKey = combineKey
	res.CombinePath = combineRec.Path
	res.Duration = combineRec.DurationSeconds
	return res
}

func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

// marker picks the error sentinel for a collaborator failure, upgrading to
// the timeout marker when the invocation deadline was the cause.
func marker(ctx context.Context, fallback error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return fallback
}
