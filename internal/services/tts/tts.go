package tts

import "context"

// Request describes one narration synthesis. OutputPath is a temp location
// owned by the caller; engines write the finished audio there and never pick
// their own destinations.
type Request struct {
	Text       string
	Voice      string
	Rate       float64
	Pitch      float64
	OutputPath string
}

// Synthesizer converts narration text to speech audio.
type Synthesizer interface {
	// Name identifies the engine for logs and cache keys.
	Name() string
	// Synthesize writes audio for the request to req.OutputPath.
	Synthesize(ctx context.Context, req Request) error
}
