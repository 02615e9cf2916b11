package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// NormalizeRequest conforms a source video to the project's frame geometry
// and codec so later stages can stream-copy it next to rendered segments.
type NormalizeRequest struct {
	InputPath  string
	OutputPath string
	Width      int
	Height     int
	FPS        int
	Codec      string
	// Duration trims the source when positive; zero keeps the full length.
	Duration float64
}

// Normalize scales, pads and re-encodes a video source, dropping its audio.
// Narration is the only audio the pipeline carries; source sound tracks are
// discarded deliberately.
func (m *Muxer) Normalize(ctx context.Context, req NormalizeRequest) error {
	args, err := buildNormalizeArgs(req)
	if err != nil {
		return err
	}
	return m.run(ctx, args)
}

func buildNormalizeArgs(req NormalizeRequest) ([]string, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return nil, errors.New("normalize requires input and output paths")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, errors.New("normalize requires target dimensions")
	}

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		req.Width, req.Height, req.Width, req.Height,
	)

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", req.InputPath}
	if req.Duration > 0 {
		args = append(args, "-t", formatSeconds(req.Duration))
	}
	args = append(args, "-vf", filter, "-an")
	if req.Codec != "" {
		args = append(args, "-c:v", req.Codec)
	}
	if req.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(req.FPS))
	}
	args = append(args, req.OutputPath)
	return args, nil
}
