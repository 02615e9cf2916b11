package build

import (
	"context"

	"reel/internal/services/ffmpeg"
	"reel/internal/services/ffprobe"
	"reel/internal/services/renderer"
	"reel/internal/services/tts"
)

// Combiner is the slice of ffmpeg behaviour the orchestrator consumes.
// Narrowed to an interface so builds are testable without an ffmpeg install.
type Combiner interface {
	Synchronize(ctx context.Context, req ffmpeg.SyncRequest) error
	Concatenate(ctx context.Context, files []string, output string) error
	ComposeGrid(ctx context.Context, req ffmpeg.GridRequest) error
	ExtractFrame(ctx context.Context, input string, atSeconds float64, output string) error
	AddSilentAudio(ctx context.Context, input, output, audioCodec string) error
	Normalize(ctx context.Context, req ffmpeg.NormalizeRequest) error
}

// Prober measures media durations.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Collaborators bundles the external services a build invokes. Every field
// is required.
type Collaborators struct {
	Synthesizer tts.Synthesizer
	Renderer    renderer.Client
	Combiner    Combiner
	Prober      Prober
}

// FFprobeProber adapts the ffprobe wrapper to the Prober interface.
type FFprobeProber struct {
	Binary string
}

func (p FFprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}
