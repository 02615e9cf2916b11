package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Concatenate stitches finished segment files with the concat demuxer and
// stream copy. No re-encode happens here: every input was produced by the
// same pipeline with the same codec settings, transitions included.
func (m *Muxer) Concatenate(ctx context.Context, files []string, output string) error {
	if len(files) == 0 {
		return errors.New("concatenate requires at least one input")
	}
	if output == "" {
		return errors.New("output path required")
	}

	listFile, err := writeConcatList(files)
	if err != nil {
		return err
	}
	defer os.Remove(listFile)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
	return m.run(ctx, args)
}

// writeConcatList materializes the demuxer's input list. Single quotes inside
// paths are escaped the way the demuxer expects ('\'' splices).
func writeConcatList(files []string) (string, error) {
	f, err := os.CreateTemp("", "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create concat list: %w", err)
	}
	var b strings.Builder
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("resolve concat input: %w", err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write concat list: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close concat list: %w", err)
	}
	return f.Name(), nil
}

// AddSilentAudio gives a silent video an audio track matching the pipeline's
// codec settings. Stream-copy concatenation requires every input to carry
// the same stream layout, and transition clips come out of the renderer
// without audio.
func (m *Muxer) AddSilentAudio(ctx context.Context, input, output, audioCodec string) error {
	if input == "" || output == "" {
		return errors.New("silent audio requires input and output paths")
	}
	if audioCodec == "" {
		audioCodec = "aac"
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-shortest",
		"-c:v", "copy",
		"-c:a", audioCodec,
		output,
	}
	return m.run(ctx, args)
}

// ExtractFrame grabs a single frame at the given offset as a PNG. Transition
// renders use it to capture the boundary frames they blend between.
func (m *Muxer) ExtractFrame(ctx context.Context, input string, atSeconds float64, output string) error {
	if input == "" || output == "" {
		return errors.New("extract frame requires input and output paths")
	}
	if atSeconds < 0 {
		atSeconds = 0
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(atSeconds),
		"-i", input,
		"-frames:v", "1",
		output,
	}
	return m.run(ctx, args)
}
