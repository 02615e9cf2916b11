package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects how mismatched video and narration durations reconcile.
type Strategy string

const (
	// StrategyExtendVideo freezes the last video frame until the padded
	// narration finishes.
	StrategyExtendVideo Strategy = "extend_video"
	// StrategyExtendAudio pads the narration with silence to the video's
	// length, trimming audio that overruns.
	StrategyExtendAudio Strategy = "extend_audio"
	// StrategyTruncate cuts both tracks to the shorter duration.
	StrategyTruncate Strategy = "truncate"
)

// KnownStrategy reports whether s is a recognized sync strategy.
func KnownStrategy(s Strategy) bool {
	switch s {
	case StrategyExtendVideo, StrategyExtendAudio, StrategyTruncate:
		return true
	}
	return false
}

// SyncRequest describes one video+narration mux. Durations are measured by
// the caller (ffprobe) so the command can be built without re-inspecting
// inputs.
type SyncRequest struct {
	VideoPath  string
	AudioPath  string
	OutputPath string

	VideoDuration float64
	AudioDuration float64

	Strategy     Strategy
	PaddingStart float64
	PaddingEnd   float64

	Codec      string
	AudioCodec string
	FPS        int
}

// TargetDuration computes the duration the synchronized output will have.
func TargetDuration(strategy Strategy, videoDur, audioDur, padStart, padEnd float64) float64 {
	totalAudio := padStart + audioDur + padEnd
	switch strategy {
	case StrategyExtendAudio:
		return videoDur
	case StrategyTruncate:
		return min(videoDur, totalAudio)
	default:
		return max(videoDur, totalAudio)
	}
}

// Synchronize muxes a silent video with narration audio, reconciling their
// durations per the strategy.
func (m *Muxer) Synchronize(ctx context.Context, req SyncRequest) error {
	args, err := buildSyncArgs(req)
	if err != nil {
		return err
	}
	return m.run(ctx, args)
}

func buildSyncArgs(req SyncRequest) ([]string, error) {
	if req.VideoPath == "" || req.AudioPath == "" || req.OutputPath == "" {
		return nil, errors.New("sync requires video, audio and output paths")
	}
	if !KnownStrategy(req.Strategy) {
		return nil, fmt.Errorf("unknown sync strategy %q", req.Strategy)
	}

	target := TargetDuration(req.Strategy, req.VideoDuration, req.AudioDuration, req.PaddingStart, req.PaddingEnd)

	var video, audio []string
	switch req.Strategy {
	case StrategyExtendVideo:
		if target > req.VideoDuration {
			video = append(video, fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%s", formatSeconds(target-req.VideoDuration)))
		}
	case StrategyTruncate:
		if target < req.VideoDuration {
			video = append(video, fmt.Sprintf("trim=duration=%s", formatSeconds(target)), "setpts=PTS-STARTPTS")
		}
	}
	if req.PaddingStart > 0 {
		delay := strconv.Itoa(int(req.PaddingStart * 1000))
		audio = append(audio, fmt.Sprintf("adelay=%s:all=1", delay))
	}
	// Pad with silence then cut to the exact target so the audio track never
	// decides the container duration on its own.
	audio = append(audio,
		"apad",
		fmt.Sprintf("atrim=duration=%s", formatSeconds(target)),
		"asetpts=PTS-STARTPTS",
	)

	videoLabel := "0:v"
	filters := make([]string, 0, 2)
	if len(video) > 0 {
		filters = append(filters, "[0:v]"+strings.Join(video, ",")+"[v]")
		videoLabel = "[v]"
	}
	filters = append(filters, "[1:a]"+strings.Join(audio, ",")+"[a]")

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", videoLabel,
		"-map", "[a]",
	}
	if req.Codec != "" {
		args = append(args, "-c:v", req.Codec)
	}
	if req.AudioCodec != "" {
		args = append(args, "-c:a", req.AudioCodec)
	}
	if req.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(req.FPS))
	}
	args = append(args, "-t", formatSeconds(target), req.OutputPath)
	return args, nil
}
