package tts

import (
	"fmt"

	"reel/internal/config"
)

// ForEngine resolves a manifest's engine name against the machine
// configuration. The manifest decides WHICH voice speaks; the config decides
// HOW that engine is reached.
func ForEngine(name string, cfg config.TTS) (Synthesizer, error) {
	switch name {
	case "command":
		return NewCommandEngine(cfg.Command)
	case "elevenlabs":
		opts := []ElevenLabsOption{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		return NewElevenLabs(cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q", name)
	}
}
