package sources

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reel/internal/project"
)

var commandContext = exec.CommandContext

// ScriptGenerator runs a manifest-declared command to produce content. The
// command is a template: {output}, {width}, {height} and {fps} are
// substituted per invocation.
type ScriptGenerator struct {
	spec project.GeneratorSpec
}

// NewScriptGenerator wraps a manifest generator declaration.
func NewScriptGenerator(spec project.GeneratorSpec) *ScriptGenerator {
	return &ScriptGenerator{spec: spec}
}

func (g *ScriptGenerator) Version() string { return g.spec.Version }

func (g *ScriptGenerator) Extension() string {
	if g.spec.Extension == "" {
		return "png"
	}
	return g.spec.Extension
}

func (g *ScriptGenerator) Generate(ctx context.Context, dest string, params GenerateParams) error {
	replacer := strings.NewReplacer(
		"{output}", dest,
		"{width}", strconv.Itoa(params.Width),
		"{height}", strconv.Itoa(params.Height),
		"{fps}", strconv.Itoa(params.FPS),
	)
	command := replacer.Replace(g.spec.Command)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("generator %s has an empty command", g.spec.Name)
	}

	if g.spec.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.spec.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := commandContext(ctx, fields[0], fields[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w: %s", fields[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

var _ Generator = (*ScriptGenerator)(nil)
