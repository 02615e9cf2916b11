package renderer

import "context"

// Request describes one composition render. Props are composition-specific
// and travel to the Node side untouched.
type Request struct {
	Composition     string         `json:"composition"`
	Props           map[string]any `json:"props"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	FPS             int            `json:"fps"`
	DurationSeconds float64        `json:"durationSeconds"`
	OutputPath      string         `json:"outputPath"`
}

// Progress captures render progress events from the Node bridge.
type Progress struct {
	Frame int
	Total int
	Phase string
}

// Client defines visual rendering behaviour.
type Client interface {
	Render(ctx context.Context, req Request, progress func(Progress)) error
}
