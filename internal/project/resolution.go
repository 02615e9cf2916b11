package project

import (
	"fmt"
	"strings"
)

// Resolution is a target render size.
type Resolution struct {
	Width  int
	Height int
}

// Presets mirror the three working modes: a fast draft, the standard 1080p
// target, and a 2K master.
var (
	ResolutionDraft = Resolution{Width: 854, Height: 480}
	Resolution1080  = Resolution{Width: 1920, Height: 1080}
	Resolution2K    = Resolution{Width: 2560, Height: 1440}
)

// ParseResolution maps a manifest string to a preset.
func ParseResolution(name string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "draft":
		return ResolutionDraft, nil
	case "", "standard", "1080p":
		return Resolution1080, nil
	case "high", "2k":
		return Resolution2K, nil
	}
	return Resolution{}, fmt.Errorf("unknown resolution %q (valid: draft, standard, 1080p, high, 2k)", name)
}

// Mode returns the short mode label used in cache paths and status output.
func (r Resolution) Mode() string {
	switch r {
	case ResolutionDraft:
		return "draft"
	case Resolution2K:
		return "high"
	default:
		return "standard"
	}
}

// ScaleFactor is the size factor relative to the 1080p baseline, used to
// scale overlay typography.
func (r Resolution) ScaleFactor() float64 {
	if r.Height == 0 {
		return 1
	}
	return float64(r.Height) / 1080
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
