package build

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/services/ffmpeg"
	"reel/internal/services/renderer"
	"reel/internal/services/tts"
	"reel/internal/sources"
	"reel/internal/testsupport"
)

// fakeSynthesizer writes the narration text itself as the audio payload, so
// the fake prober can derive a duration from the text length.
type fakeSynthesizer struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (f *fakeSynthesizer) Name() string { return "fake" }

func (f *fakeSynthesizer) Synthesize(_ context.Context, req tts.Request) error {
	f.mu.Lock()
	f.calls++
	err := f.fail[req.Text]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(req.OutputPath, []byte(req.Text), 0o644)
}

func (f *fakeSynthesizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, req renderer.Request, _ func(renderer.Progress)) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	payload := fmt.Sprintf("render %s %.3fs", req.Composition, req.DurationSeconds)
	return os.WriteFile(req.OutputPath, []byte(payload), 0o644)
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCombiner struct {
	mu          sync.Mutex
	synced      int
	concats     int
	grids       int
	frames      int
	silenced    int
	normalized  int
	lastConcats []string
}

func (f *fakeCombiner) Synchronize(_ context.Context, req ffmpeg.SyncRequest) error {
	f.mu.Lock()
	f.synced++
	f.mu.Unlock()
	return os.WriteFile(req.OutputPath, []byte("synced"), 0o644)
}

func (f *fakeCombiner) Concatenate(_ context.Context, files []string, output string) error {
	f.mu.Lock()
	f.concats++
	f.lastConcats = append([]string(nil), files...)
	f.mu.Unlock()
	return os.WriteFile(output, []byte(fmt.Sprintf("concat of %d", len(files))), 0o644)
}

func (f *fakeCombiner) ComposeGrid(_ context.Context, req ffmpeg.GridRequest) error {
	f.mu.Lock()
	f.grids++
	f.mu.Unlock()
	return os.WriteFile(req.OutputPath, []byte(fmt.Sprintf("grid of %d", len(req.CellPaths))), 0o644)
}

func (f *fakeCombiner) ExtractFrame(_ context.Context, input string, atSeconds float64, output string) error {
	f.mu.Lock()
	f.frames++
	f.mu.Unlock()
	return os.WriteFile(output, []byte(fmt.Sprintf("frame %.2f of %s", atSeconds, input)), 0o644)
}

func (f *fakeCombiner) AddSilentAudio(_ context.Context, input, output, _ string) error {
	f.mu.Lock()
	f.silenced++
	f.mu.Unlock()
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, append(data, []byte(" +silence")...), 0o644)
}

func (f *fakeCombiner) Normalize(_ context.Context, req ffmpeg.NormalizeRequest) error {
	f.mu.Lock()
	f.normalized++
	f.mu.Unlock()
	return os.WriteFile(req.OutputPath, []byte("normalized"), 0o644)
}

func (f *fakeCombiner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synced + f.concats + f.grids + f.frames + f.silenced + f.normalized
}

// fakeProber maps a file's byte length to seconds, so longer narration text
// yields longer audio.
type fakeProber struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.Size()), nil
}

type fakes struct {
	synth    *fakeSynthesizer
	renderer *fakeRenderer
	combiner *fakeCombiner
	prober   *fakeProber
}

func newFakes() *fakes {
	return &fakes{
		synth:    &fakeSynthesizer{fail: make(map[string]error)},
		renderer: &fakeRenderer{},
		combiner: &fakeCombiner{},
		prober:   &fakeProber{},
	}
}

func (f *fakes) collaborators() Collaborators {
	return Collaborators{
		Synthesizer: f.synth,
		Renderer:    f.renderer,
		Combiner:    f.combiner,
		Prober:      f.prober,
	}
}

// invocations counts every external process a build would have spawned.
func (f *fakes) invocations() int {
	return f.synth.count() + f.renderer.count() + f.combiner.count() + f.prober.calls
}

func newTestBuilder(t *testing.T, opts ...testsupport.ConfigOption) (*Builder, *fakes, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenCache(t, cfg)
	resolver, err := sources.NewResolver(nil, nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	f := newFakes()
	return New(cfg, store, resolver, f.collaborators(), logging.NewNop()), f, cfg
}
