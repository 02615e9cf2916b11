package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// CommandEngine drives a text-to-speech command line tool. The argv template
// comes from configuration; the placeholders {text}, {output}, {voice},
// {rate} and {pitch} are substituted per invocation, so any synthesizer with
// a file-writing CLI can serve narration.
type CommandEngine struct {
	argv []string
}

// NewCommandEngine validates the argv template and constructs the engine.
// The template must reference {text} and {output} at minimum, otherwise the
// tool could not receive the narration or deliver the audio.
func NewCommandEngine(argv []string) (*CommandEngine, error) {
	if len(argv) == 0 {
		return nil, errors.New("tts command template is empty")
	}
	joined := strings.Join(argv, " ")
	for _, required := range []string{"{text}", "{output}"} {
		if !strings.Contains(joined, required) {
			return nil, fmt.Errorf("tts command template missing %s placeholder", required)
		}
	}
	return &CommandEngine{argv: append([]string(nil), argv...)}, nil
}

func (e *CommandEngine) Name() string { return "command" }

// Synthesize runs the configured tool and verifies it produced audio.
func (e *CommandEngine) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("narration text is empty")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}

	replacer := strings.NewReplacer(
		"{text}", req.Text,
		"{output}", req.OutputPath,
		"{voice}", req.Voice,
		"{rate}", formatFloat(req.Rate),
		"{pitch}", formatFloat(req.Pitch),
	)
	args := make([]string, 0, len(e.argv))
	for _, arg := range e.argv {
		args = append(args, replacer.Replace(arg))
	}

	cmd := commandContext(ctx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tts command failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("tts command produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("tts command produced empty audio")
	}
	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

var _ Synthesizer = (*CommandEngine)(nil)
