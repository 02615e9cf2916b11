package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks project or config problems detected before any
	// stage executes. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrSourceUnavailable marks a content source whose path, URL, or
	// generator key cannot be resolved.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSynthesis marks narration synthesizer failures.
	ErrSynthesis = errors.New("synthesis error")
	// ErrRender marks visual renderer failures.
	ErrRender = errors.New("render error")
	// ErrMux marks audio/video combine failures.
	ErrMux = errors.New("mux error")
	// ErrConcat marks final concatenation failures.
	ErrConcat = errors.New("concat error")
	// ErrCacheIntegrity marks a cache record whose artifact is missing on
	// disk. Treated as a miss by the orchestrator.
	ErrCacheIntegrity = errors.New("cache integrity error")
	// ErrTimeout marks a collaborator that exceeded its invocation deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error that carries segment and stage context while tagging
// it with the provided marker for errors.Is classification.
func Wrap(marker error, segmentID, stage, message string, err error) error {
	detail := buildDetail(segmentID, stage, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCollaborator reports whether err originated in an external collaborator
// rather than in project configuration or the cache itself.
func IsCollaborator(err error) bool {
	return errors.Is(err, ErrSynthesis) ||
		errors.Is(err, ErrRender) ||
		errors.Is(err, ErrMux) ||
		errors.Is(err, ErrConcat) ||
		errors.Is(err, ErrSourceUnavailable)
}

func buildDetail(segmentID, stage, message string) string {
	parts := make([]string, 0, 3)
	if segmentID = strings.TrimSpace(segmentID); segmentID != "" {
		parts = append(parts, "segment "+segmentID)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
