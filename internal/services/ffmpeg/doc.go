// Package ffmpeg wraps the ffmpeg binary for muxing, concatenation, frame
// extraction and grid stacking.
//
// The package builds argument lists from typed requests and shells out; it
// never parses media itself (that is ffprobe's job) and never decides
// durations (the caller passes measured values in). Keeping command
// construction in pure functions makes the invocations testable without an
// ffmpeg install.
package ffmpeg
