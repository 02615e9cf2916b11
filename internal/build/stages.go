package build

import (
	"context"
	"fmt"

	"reel/internal/cache"
	"reel/internal/logging"
	"reel/internal/project"
	"reel/internal/services"
	"reel/internal/services/ffmpeg"
	"reel/internal/services/renderer"
	"reel/internal/services/tts"
	"reel/internal/sources"
)

// ensureNarration resolves the segment's narration artifact, synthesizing on
// a miss. The returned record carries the measured audio duration.
func (b *Builder) ensureNarration(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, force *forceSet) (*cache.Record, string, error) {
	k := keyer{p: p}
	key := k.narrationKey(seg.Narration)

	if !force.forced(seg.ID, cache.StageNarration) {
		rec, err := b.store.Lookup(ctx, seg.ID, cache.StageNarration, key)
		if err != nil {
			res.mark(cache.StageNarration, OutcomeFailed)
			return nil, "", err
		}
		if rec != nil {
			res.mark(cache.StageNarration, OutcomeHit)
			return rec, key, nil
		}
	}

	tmp := b.store.TempPath(".mp3")
	tctx, cancel := withTimeout(ctx, b.cfg.TTS.TimeoutSeconds)
	defer cancel()
	err := b.collab.Synthesizer.Synthesize(tctx, tts.Request{
		Text:       seg.Narration,
		Voice:      p.Narration.Voice,
		Rate:       p.Narration.Rate,
		Pitch:      p.Narration.Pitch,
		OutputPath: tmp,
	})
	if err != nil {
		res.mark(cache.StageNarration, OutcomeFailed)
		return nil, "", services.Wrap(marker(tctx, services.ErrSynthesis), seg.ID, string(cache.StageNarration), "synthesize narration", err)
	}

	duration, err := b.collab.Prober.Duration(ctx, tmp)
	if err != nil {
		res.mark(cache.StageNarration, OutcomeFailed)
		return nil, "", services.Wrap(services.ErrSynthesis, seg.ID, string(cache.StageNarration), "measure synthesized audio", err)
	}

	rec, err := b.store.Publish(ctx, seg.ID, cache.StageNarration, key, tmp, ".mp3", cache.Metadata{DurationSeconds: duration})
	if err != nil {
		res.mark(cache.StageNarration, OutcomeFailed)
		return nil, "", err
	}
	res.mark(cache.StageNarration, OutcomeBuilt)
	return rec, key, nil
}

// ensureSource resolves a content source and, for generators, materializes
// its artifact under the given cache scope. The returned path is the content
// file to feed downstream; placeholders return an empty path because their
// content is synthesized by the renderer itself.
func (b *Builder) ensureSource(ctx context.Context, p *project.Project, scope string, src project.Source, res *SegmentResult, force *forceSet) (string, string, error) {
	k := keyer{p: p}
	resolved, err := b.resolver.Resolve(src)
	if err != nil {
		res.mark(cache.StageSource, OutcomeFailed)
		return "", "", fmt.Errorf("segment %s: %w", scope, err)
	}
	key := k.sourceKey(resolved)

	switch resolved.Type {
	case project.SourceAsset, project.SourcePlaceholder:
		// Nothing to generate; the stamp alone carries the identity.
		res.mark(cache.StageSource, OutcomeSkipped)
		return resolved.Path, key, nil
	}

	if !force.forced(scope, cache.StageSource) {
		rec, err := b.store.Lookup(ctx, scope, cache.StageSource, key)
		if err != nil {
			res.mark(cache.StageSource, OutcomeFailed)
			return "", "", err
		}
		if rec != nil {
			res.mark(cache.StageSource, OutcomeHit)
			return rec.Path, key, nil
		}
	}

	extension, err := b.resolver.GeneratorExtension(src.Generator)
	if err != nil {
		res.mark(cache.StageSource, OutcomeFailed)
		return "", "", err
	}
	ext := "." + extension
	tmp := b.store.TempPath(ext)
	params := sources.GenerateParams{
		Width:  p.Resolution.Width,
		Height: p.Resolution.Height,
		FPS:    p.FPS,
	}
	if err := b.resolver.Generate(ctx, src.Generator, tmp, params); err != nil {
		res.mark(cache.StageSource, OutcomeFailed)
		return "", "", fmt.Errorf("segment %s: %w", scope, err)
	}
	rec, err := b.store.Publish(ctx, scope, cache.StageSource, key, tmp, ext, cache.Metadata{})
	if err != nil {
		res.mark(cache.StageSource, OutcomeFailed)
		return "", "", err
	}
	res.mark(cache.StageSource, OutcomeBuilt)
	return rec.Path, key, nil
}

// ensureRender resolves the segment's visual artifact. duration is the
// resolved playback duration; derived marks it as adopted from narration
// audio, which keeps explicit and derived durations from aliasing in the key.
func (b *Builder) ensureRender(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, duration float64, derived bool, force *forceSet) (*cache.Record, string, error) {
	switch seg.Kind {
	case project.KindGrid:
		return b.renderGrid(ctx, p, seg, res, duration, derived, force)
	case project.KindVideo:
		return b.renderVideo(ctx, p, seg, res, force)
	default:
		return b.renderComposition(ctx, p, seg, res, duration, derived, force)
	}
}

// renderComposition handles title and image segments through the Node
// renderer.
func (b *Builder) renderComposition(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, duration float64, derived bool, force *forceSet) (*cache.Record, string, error) {
	var (
		sourcePath string
		sourceKeys []string
	)
	if seg.Kind == project.KindImage {
		path, srcKey, err := b.ensureSource(ctx, p, seg.ID, seg.Source, res, force)
		if err != nil {
			return nil, "", err
		}
		sourcePath = path
		sourceKeys = []string{srcKey}
	} else {
		res.mark(cache.StageSource, OutcomeSkipped)
	}

	k := keyer{p: p}
	key := k.renderKey(seg, sourceKeys, duration, derived)

	if !force.forced(seg.ID, cache.StageRender) {
		rec, err := b.store.Lookup(ctx, seg.ID, cache.StageRender, key)
		if err != nil {
			res.mark(cache.StageRender, OutcomeFailed)
			return nil, "", err
		}
		if rec != nil {
			res.mark(cache.StageRender, OutcomeHit)
			return rec, key, nil
		}
	}

	tmp := b.store.TempPath(".mp4")
	req := renderer.Request{
		Composition:     segmentComposition(seg),
		Props:           segmentProps(p, seg, sourcePath),
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
		FPS:             p.FPS,
		DurationSeconds: duration,
		OutputPath:      tmp,
	}
	if err := b.render(ctx, seg.ID, req); err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", err
	}

	rec, err := b.store.Publish(ctx, seg.ID, cache.StageRender, key, tmp, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
	})
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", err
	}
	res.mark(cache.StageRender, OutcomeBuilt)
	return rec, key, nil
}

// renderVideo normalizes a video source to the project's frame geometry and
// codec, dropping its sound track. Video segments never use the Node
// renderer and their duration is never narration-derived.
func (b *Builder) renderVideo(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, force *forceSet) (*cache.Record, string, error) {
	sourcePath, srcKey, err := b.ensureSource(ctx, p, seg.ID, seg.Source, res, force)
	if err != nil {
		return nil, "", err
	}

	k := keyer{p: p}
	key := k.renderKey(seg, []string{srcKey}, seg.Duration, false)

	if !force.forced(seg.ID, cache.StageRender) {
		rec, err := b.store.Lookup(ctx, seg.ID, cache.StageRender, key)
		if err != nil {
			res.mark(cache.StageRender, OutcomeFailed)
			return nil, "", err
		}
		if rec != nil {
			res.mark(cache.StageRender, OutcomeHit)
			return rec, key, nil
		}
	}

	tmp := b.store.TempPath(".mp4")
	tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
	defer cancel()
	err = b.collab.Combiner.Normalize(tctx, ffmpeg.NormalizeRequest{
		InputPath:  sourcePath,
		OutputPath: tmp,
		Width:      p.Resolution.Width,
		Height:     p.Resolution.Height,
		FPS:        p.FPS,
		Codec:      p.Export.Codec,
		Duration:   seg.Duration,
	})
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", services.Wrap(marker(tctx, services.ErrRender), seg.ID, string(cache.StageRender), "normalize video source", err)
	}

	duration, err := b.collab.Prober.Duration(ctx, tmp)
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", services.Wrap(services.ErrRender, seg.ID, string(cache.StageRender), "measure normalized video", err)
	}

	rec, err := b.store.Publish(ctx, seg.ID, cache.StageRender, key, tmp, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
	})
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", err
	}
	res.mark(cache.StageRender, OutcomeBuilt)
	return rec, key, nil
}

// renderGrid renders each cell as an independent sub-artifact, then stacks
// them. Cell artifacts cache under "<segment>/cell-<n>" scopes so segment
// invalidation sweeps them, while an edit to one cell reruns only that cell
// and the cheap stacking step.
func (b *Builder) renderGrid(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, duration float64, derived bool, force *forceSet) (*cache.Record, string, error) {
	k := keyer{p: p}

	columns := seg.Columns
	if columns <= 0 {
		columns = 2
	}
	rows := (len(seg.Cells) + columns - 1) / columns
	cellWidth := p.Resolution.Width / columns
	cellHeight := p.Resolution.Height / rows

	sourceKeys := make([]string, 0, len(seg.Cells))
	cellPaths := make([]string, 0, len(seg.Cells))
	for i := range seg.Cells {
		cell := &seg.Cells[i]
		scope := fmt.Sprintf("%s/cell-%d", seg.ID, i)

		sourcePath, srcKey, err := b.ensureSource(ctx, p, scope, cell.Source, res, force)
		if err != nil {
			return nil, "", err
		}
		sourceKeys = append(sourceKeys, srcKey)

		cellPath, err := b.renderCell(ctx, p, seg, cell, scope, sourcePath, srcKey, duration, cellWidth, cellHeight, res, force)
		if err != nil {
			return nil, "", err
		}
		cellPaths = append(cellPaths, cellPath)
	}

	key := k.renderKey(seg, sourceKeys, duration, derived)
	if !force.forced(seg.ID, cache.StageRender) {
		rec, err := b.store.Lookup(ctx, seg.ID, cache.StageRender, key)
		if err != nil {
			res.mark(cache.StageRender, OutcomeFailed)
			return nil, "", err
		}
		if rec != nil {
			res.mark(cache.StageRender, OutcomeHit)
			return rec, key, nil
		}
	}

	tmp := b.store.TempPath(".mp4")
	tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
	defer cancel()
	err := b.collab.Combiner.ComposeGrid(tctx, ffmpeg.GridRequest{
		CellPaths:  cellPaths,
		OutputPath: tmp,
		Columns:    columns,
		Width:      p.Resolution.Width,
		Height:     p.Resolution.Height,
		Codec:      p.Export.Codec,
		FPS:        p.FPS,
	})
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", services.Wrap(marker(tctx, services.ErrRender), seg.ID, string(cache.StageRender), "compose grid", err)
	}

	rec, err := b.store.Publish(ctx, seg.ID, cache.StageRender, key, tmp, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
	})
	if err != nil {
		res.mark(cache.StageRender, OutcomeFailed)
		return nil, "", err
	}
	res.mark(cache.StageRender, OutcomeBuilt)
	return rec, key, nil
}

func (b *Builder) renderCell(ctx context.Context, p *project.Project, seg *project.Segment, cell *project.GridCell, scope, sourcePath, srcKey string, duration float64, cellWidth, cellHeight int, res *SegmentResult, force *forceSet) (string, error) {
	k := keyer{p: p}
	key := k.cellKey(cell, srcKey, duration, cellWidth, cellHeight)

	if !force.forced(seg.ID, cache.StageRender) {
		rec, err := b.store.Lookup(ctx, scope, cache.StageRender, key)
		if err != nil {
			return "", err
		}
		if rec != nil {
			return rec.Path, nil
		}
	}

	tmp := b.store.TempPath(".mp4")
	req := renderer.Request{
		Composition:     "GridCell",
		Props:           cellProps(cell, sourcePath),
		Width:           cellWidth,
		Height:          cellHeight,
		FPS:             p.FPS,
		DurationSeconds: duration,
		OutputPath:      tmp,
	}
	if err := b.render(ctx, seg.ID, req); err != nil {
		return "", err
	}

	rec, err := b.store.Publish(ctx, scope, cache.StageRender, key, tmp, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           cellWidth,
		Height:          cellHeight,
	})
	if err != nil {
		return "", err
	}
	return rec.Path, nil
}

// render invokes the Node bridge with the configured timeout and debug-level
// progress logging.
func (b *Builder) render(ctx context.Context, segmentID string, req renderer.Request) error {
	tctx, cancel := withTimeout(ctx, b.cfg.Renderer.TimeoutSeconds)
	defer cancel()
	err := b.collab.Renderer.Render(tctx, req, func(p renderer.Progress) {
		b.logger.Debug("render progress",
			logging.String(logging.FieldSegmentID, segmentID),
			logging.String("composition", req.Composition),
			logging.Int("frame", p.Frame),
			logging.Int("total", p.Total),
		)
	})
	if err != nil {
		return services.Wrap(marker(tctx, services.ErrRender), segmentID, string(cache.StageRender), "render "+req.Composition, err)
	}
	return nil
}

// ensureCombine resolves the finished segment artifact. With narration the
// streams are muxed under the project's sync strategy; without it the render
// is republished under the combine stage so the export deals with a single
// artifact shape.
func (b *Builder) ensureCombine(ctx context.Context, p *project.Project, seg *project.Segment, res *SegmentResult, renderRec *cache.Record, renderKey string, narrRec *cache.Record, narrKey string, force *forceSet) (*cache.Record, string, error) {
	k := keyer{p: p}
	key := k.combineKey(renderKey, narrKey)

	if !force.forced(seg.ID, cache.StageCombine) {
		rec, err := b.store.Lookup(ctx, seg.ID, cache.StageCombine, key)
		if err != nil {
			res.mark(cache.StageCombine, OutcomeFailed)
			return nil, "", err
		}
		if rec != nil {
			res.mark(cache.StageCombine, OutcomeHit)
			return rec, key, nil
		}
	}

	tmp := b.store.TempPath(".mp4")
	duration := renderRec.DurationSeconds

	if narrRec == nil {
		// Silent segments still need an audio stream so the concat
		// demuxer sees a uniform layout.
		tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
		defer cancel()
		if err := b.collab.Combiner.AddSilentAudio(tctx, renderRec.Path, tmp, p.Export.AudioCodec); err != nil {
			res.mark(cache.StageCombine, OutcomeFailed)
			return nil, "", services.Wrap(marker(tctx, services.ErrMux), seg.ID, string(cache.StageCombine), "add silent audio", err)
		}
	} else {
		strategy := ffmpeg.Strategy(p.Sync.Strategy)
		tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
		defer cancel()
		err := b.collab.Combiner.Synchronize(tctx, ffmpeg.SyncRequest{
			VideoPath:     renderRec.Path,
			AudioPath:     narrRec.Path,
			OutputPath:    tmp,
			VideoDuration: renderRec.DurationSeconds,
			AudioDuration: narrRec.DurationSeconds,
			Strategy:      strategy,
			PaddingStart:  p.Sync.PaddingStart,
			PaddingEnd:    p.Sync.PaddingEnd,
			Codec:         p.Export.Codec,
			AudioCodec:    p.Export.AudioCodec,
			FPS:           p.FPS,
		})
		if err != nil {
			res.mark(cache.StageCombine, OutcomeFailed)
			return nil, "", services.Wrap(marker(tctx, services.ErrMux), seg.ID, string(cache.StageCombine), "synchronize streams", err)
		}
		duration = ffmpeg.TargetDuration(strategy, renderRec.DurationSeconds, narrRec.DurationSeconds, p.Sync.PaddingStart, p.Sync.PaddingEnd)
	}

	rec, err := b.store.Publish(ctx, seg.ID, cache.StageCombine, key, tmp, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           renderRec.Width,
		Height:          renderRec.Height,
	})
	if err != nil {
		res.mark(cache.StageCombine, OutcomeFailed)
		return nil, "", err
	}
	res.mark(cache.StageCombine, OutcomeBuilt)
	return rec, key, nil
}
