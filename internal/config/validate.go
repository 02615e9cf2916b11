package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration errors that would make a build impossible.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		problems = append(problems, "paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must be set")
	}
	if c.Workflow.BuildConcurrency < 1 {
		problems = append(problems, "workflow.build_concurrency must be at least 1")
	}
	if c.FFmpeg.Binary == "" {
		problems = append(problems, "ffmpeg.binary must be set")
	}
	if c.FFmpeg.ProbeBinary == "" {
		problems = append(problems, "ffmpeg.probe_binary must be set")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not console or json", c.Logging.Format))
	}
	if c.TTS.TimeoutSeconds < 0 || c.Renderer.TimeoutSeconds < 0 || c.FFmpeg.TimeoutSeconds < 0 {
		problems = append(problems, "timeouts must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
