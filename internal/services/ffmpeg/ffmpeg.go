package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Muxer wraps the ffmpeg binary for the handful of operations the pipeline
// needs. Anything visual happens in the renderer; ffmpeg only measures,
// muxes, stitches and stacks.
type Muxer struct {
	binary string
}

// Option configures the muxer.
type Option func(*Muxer)

// WithBinary overrides the default ffmpeg binary.
func WithBinary(binary string) Option {
	return func(m *Muxer) {
		if binary != "" {
			m.binary = binary
		}
	}
}

// NewMuxer constructs a muxer using defaults.
func NewMuxer(opts ...Option) *Muxer {
	muxer := &Muxer{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(muxer)
	}
	return muxer
}

func (m *Muxer) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, m.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(string(output), 512))
	}
	return nil
}

// tail keeps the last n bytes of ffmpeg's chatter, which is where the actual
// error lives.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
