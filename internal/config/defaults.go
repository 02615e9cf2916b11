package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns the baseline configuration before any file is applied.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir(),
			OutputDir: "./output",
			LogDir:    defaultLogDir(),
		},
		TTS: TTS{
			TimeoutSeconds: 120,
		},
		Renderer: Renderer{
			NodeBinary:     "node",
			TimeoutSeconds: 300,
			LogLevel:       "warn",
		},
		FFmpeg: FFmpeg{
			Binary:         "ffmpeg",
			ProbeBinary:    "ffprobe",
			TimeoutSeconds: 600,
		},
		Workflow: Workflow{
			BuildConcurrency: 2,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "reel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./cache"
	}
	return filepath.Join(home, ".cache", "reel")
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./logs"
	}
	return filepath.Join(home, ".local", "share", "reel", "logs")
}
