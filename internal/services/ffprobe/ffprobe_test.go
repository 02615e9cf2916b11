package ffprobe

import "testing"

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio", Channels: 2},
		},
		Format: Format{
			Duration: "12.5",
		},
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	width, height := result.Dimensions()
	if width != 1920 || height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", width, height)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "3.25"},
		},
	}
	if result.DurationSeconds() != 3.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestHelpersHandleMissingStreams(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0 duration, got %v", result.DurationSeconds())
	}
	width, height := result.Dimensions()
	if width != 0 || height != 0 {
		t.Fatalf("expected zero dimensions, got %dx%d", width, height)
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
}
