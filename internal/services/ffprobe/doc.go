// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The build pipeline uses it to measure narration audio durations (which feed
// render timing) and to verify combined segment containers before they are
// cached.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
//
// Helper methods on Result expose duration, video dimensions, and audio
// presence without the caller touching raw stream lists.
package ffprobe
