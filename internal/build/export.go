package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reel/internal/cache"
	"reel/internal/logging"
	"reel/internal/project"
	"reel/internal/services"
	"reel/internal/services/renderer"
)

// export concatenates every finished segment, interleaving transition clips,
// and copies the result into the output directory. The concat artifact
// caches under the export scope keyed on the ordered combine keys; a build
// whose segments all hit reuses it without touching ffmpeg.
func (b *Builder) export(ctx context.Context, p *project.Project, report *Report, force *forceSet, outputOverride string) error {
	k := keyer{p: p}

	combineKeys := make([]string, len(report.Segments))
	for i, seg := range report.Segments {
		combineKeys[i] = seg.CombineKey
	}

	files := make([]string, 0, 2*len(report.Segments))
	transitions := make([]string, 0, len(report.Segments))
	for i, seg := range report.Segments {
		if i > 0 {
			kind, duration := p.TransitionInto(i - 1)
			transitions = append(transitions, transitionDescriptor(kind, duration))
			if kind != "none" {
				prev := report.Segments[i-1]
				clip, err := b.ensureTransition(ctx, p, prev, seg, kind, duration, force)
				if err != nil {
					return err
				}
				files = append(files, clip)
			}
		}
		files = append(files, seg.CombinePath)
	}

	key := k.exportKey(combineKeys, transitions)

	var rec *cache.Record
	if !force.exportForced() {
		found, err := b.store.Lookup(ctx, cache.ExportScope, cache.StageExport, key)
		if err != nil {
			return err
		}
		rec = found
	}

	if rec != nil {
		report.ExportHit = true
	} else {
		tmp := b.store.TempPath(".mp4")
		tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
		defer cancel()
		if err := b.collab.Combiner.Concatenate(tctx, files, tmp); err != nil {
			return services.Wrap(marker(tctx, services.ErrConcat), "", string(cache.StageExport), "concatenate segments", err)
		}
		var total float64
		for _, seg := range report.Segments {
			total += seg.Duration
		}
		published, err := b.store.Publish(ctx, cache.ExportScope, cache.StageExport, key, tmp, ".mp4", cache.Metadata{
			DurationSeconds: total,
			Width:           p.Resolution.Width,
			Height:          p.Resolution.Height,
		})
		if err != nil {
			return err
		}
		rec = published
	}

	dest := outputOverride
	if dest == "" {
		dest = filepath.Join(b.cfg.Paths.OutputDir, exportFileName(p.Name))
	}
	if err := copyFile(rec.Path, dest); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	report.ExportPath = dest

	b.logger.Info("export complete",
		logging.String(logging.FieldBuildID, report.BuildID),
		logging.String(logging.FieldArtifact, dest),
		logging.Bool("cache_hit", report.ExportHit),
	)
	return nil
}

// frameEpsilon backs the boundary-frame grab off the combine's exact end so
// the seek never lands past the last frame.
const frameEpsilon = 0.05

// ensureTransition resolves the blend clip between two adjacent segments. A
// clip is a short rendered composition over the previous segment's last
// frame and the next segment's first, with a silent audio bed so the concat
// demuxer sees the same stream layout as real segments. Clips cache under
// "<prev>/into-<next>" so invalidating either neighbour sweeps them.
func (b *Builder) ensureTransition(ctx context.Context, p *project.Project, prev, next *SegmentResult, kind string, duration float64, force *forceSet) (string, error) {
	k := keyer{p: p}
	key := k.transitionKey(prev.CombineKey, next.CombineKey, kind, duration)
	scope := prev.ID + "/into-" + next.ID

	if !force.exportForced() {
		rec, err := b.store.Lookup(ctx, scope, cache.StageExport, key)
		if err != nil {
			return "", err
		}
		if rec != nil {
			return rec.Path, nil
		}
	}

	fromImage := b.store.TempPath(".png")
	toImage := b.store.TempPath(".png")
	silent := b.store.TempPath(".mp4")
	defer func() {
		for _, path := range []string{fromImage, toImage, silent} {
			_ = os.Remove(path)
		}
	}()

	tctx, cancel := withTimeout(ctx, b.cfg.FFmpeg.TimeoutSeconds)
	defer cancel()
	at := prev.Duration - frameEpsilon
	if at < 0 {
		at = 0
	}
	if err := b.collab.Combiner.ExtractFrame(tctx, prev.CombinePath, at, fromImage); err != nil {
		return "", services.Wrap(marker(tctx, services.ErrConcat), prev.ID, string(cache.StageExport), "extract boundary frame", err)
	}
	if err := b.collab.Combiner.ExtractFrame(tctx, next.CombinePath, 0, toImage); err != nil {
		return "", services.Wrap(marker(tctx, services.ErrConcat), next.ID, string(cache.StageExport), "extract boundary frame", err)
	}

	composition, direction := transitionComposition(kind)
	req := renderer.Request{
		Composition:     composition,
		Props:           transitionProps(fromImage, toImage, direction),
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
		FPS:             p.FPS,
		DurationSeconds: duration,
		OutputPath:      silent,
	}
	if err := b.render(ctx, scope, req); err != nil {
		return "", err
	}

	withAudio := b.store.TempPath(".mp4")
	if err := b.collab.Combiner.AddSilentAudio(tctx, silent, withAudio, p.Export.AudioCodec); err != nil {
		return "", services.Wrap(marker(tctx, services.ErrConcat), scope, string(cache.StageExport), "add silent audio", err)
	}

	rec, err := b.store.Publish(ctx, scope, cache.StageExport, key, withAudio, ".mp4", cache.Metadata{
		DurationSeconds: duration,
		Width:           p.Resolution.Width,
		Height:          p.Resolution.Height,
	})
	if err != nil {
		return "", err
	}
	return rec.Path, nil
}

// exportFileName derives a filesystem-safe output name from the project name.
func exportFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "export"
	}
	return cleaned + ".mp4"
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
