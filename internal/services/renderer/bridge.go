package renderer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// minNodeMajor is the oldest Node.js the render entrypoint supports.
const minNodeMajor = 18

// entrypointName is the script the bridge executes inside the renderer
// project directory.
const entrypointName = "render.mjs"

// Bridge drives the Node-based renderer. Requests travel as JSON on stdin;
// the script reports progress as JSON lines on stdout and exits non-zero on
// failure, leaving diagnostics in the final error event.
type Bridge struct {
	nodeBinary string
	projectDir string
}

// Option configures the bridge.
type Option func(*Bridge)

// WithNodeBinary overrides the default node binary.
func WithNodeBinary(binary string) Option {
	return func(b *Bridge) {
		if binary != "" {
			b.nodeBinary = binary
		}
	}
}

// NewBridge constructs a bridge rooted at the renderer project directory.
func NewBridge(projectDir string, opts ...Option) *Bridge {
	bridge := &Bridge{nodeBinary: "node", projectDir: projectDir}
	for _, opt := range opts {
		opt(bridge)
	}
	return bridge
}

// CheckEnvironment verifies the node binary exists, is new enough, and the
// renderer project carries its entrypoint. Called once per build, not per
// render.
func (b *Bridge) CheckEnvironment(ctx context.Context) error {
	out, err := commandContext(ctx, b.nodeBinary, "--version").Output()
	if err != nil {
		return fmt.Errorf("node binary %q not runnable: %w", b.nodeBinary, err)
	}
	version := strings.TrimSpace(string(out))
	major, err := parseNodeMajor(version)
	if err != nil {
		return fmt.Errorf("parse node version %q: %w", version, err)
	}
	if major < minNodeMajor {
		return fmt.Errorf("node %s is too old, need >= %d", version, minNodeMajor)
	}

	entrypoint := filepath.Join(b.projectDir, entrypointName)
	if _, err := os.Stat(entrypoint); err != nil {
		return fmt.Errorf("renderer entrypoint missing: %w", err)
	}
	return nil
}

// event mirrors the JSON lines the entrypoint writes to stdout.
type event struct {
	Type    string `json:"type"`
	Frame   int    `json:"frame"`
	Total   int    `json:"total"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Render executes one composition and waits for the output file.
func (b *Bridge) Render(ctx context.Context, req Request, progress func(Progress)) error {
	if req.Composition == "" {
		return errors.New("composition required")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode render request: %w", err)
	}

	entrypoint := filepath.Join(b.projectDir, entrypointName)
	cmd := commandContext(ctx, b.nodeBinary, entrypoint)
	cmd.Dir = b.projectDir
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start renderer: %w", err)
	}

	var failure *RenderError
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var evt event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		switch evt.Type {
		case "progress":
			if progress != nil {
				progress(Progress{Frame: evt.Frame, Total: evt.Total, Phase: evt.Phase})
			}
		case "error":
			failure = &RenderError{
				Composition: req.Composition,
				Message:     evt.Message,
				Stack:       evt.Stack,
			}
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	if failure != nil {
		failure.Stderr = strings.TrimSpace(stderr.String())
		return failure
	}
	if waitErr != nil {
		return &RenderError{
			Composition: req.Composition,
			Message:     waitErr.Error(),
			Stderr:      strings.TrimSpace(stderr.String()),
		}
	}
	if scanErr != nil {
		return fmt.Errorf("read renderer output: %w", scanErr)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return &RenderError{Composition: req.Composition, Message: "renderer produced no output file"}
	}
	if info.Size() == 0 {
		return &RenderError{Composition: req.Composition, Message: "renderer produced empty output file"}
	}
	return nil
}

func parseNodeMajor(version string) (int, error) {
	version = strings.TrimPrefix(version, "v")
	head, _, _ := strings.Cut(version, ".")
	return strconv.Atoi(head)
}

var _ Client = (*Bridge)(nil)
