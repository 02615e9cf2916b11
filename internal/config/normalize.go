package config

import "strings"

// normalize expands and cleans every path-valued field in place.
func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.CacheDir,
		&c.Paths.OutputDir,
		&c.Paths.LogDir,
		&c.Renderer.ProjectDir,
	}
	for _, field := range paths {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	c.FFmpeg.ProbeBinary = strings.TrimSpace(c.FFmpeg.ProbeBinary)
	c.Renderer.NodeBinary = strings.TrimSpace(c.Renderer.NodeBinary)
	return nil
}
