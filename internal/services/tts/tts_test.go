package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/config"
)

func TestNewCommandEngineValidatesTemplate(t *testing.T) {
	if _, err := NewCommandEngine(nil); err == nil {
		t.Fatal("expected error for empty template")
	}
	if _, err := NewCommandEngine([]string{"speak", "{text}"}); err == nil {
		t.Fatal("expected error for missing {output}")
	}
	if _, err := NewCommandEngine([]string{"speak", "{text}", "-o", "{output}"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCommandEngineSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "speak.sh")
	// The stub records its argv and writes fake audio to the output path.
	stub := `#!/bin/sh
echo "$@" > "` + filepath.Join(dir, "argv.txt") + `"
echo fake-audio > "$4"
`
	if err := os.WriteFile(script, []byte(stub), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	engine, err := NewCommandEngine([]string{script, "{text}", "--voice", "{voice}", "{output}", "--rate", "{rate}"})
	if err != nil {
		t.Fatalf("NewCommandEngine: %v", err)
	}

	out := filepath.Join(dir, "narration.mp3")
	err = engine.Synthesize(context.Background(), Request{
		Text:       "hello world",
		Voice:      "nova",
		Rate:       1.25,
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	argv, err := os.ReadFile(filepath.Join(dir, "argv.txt"))
	if err != nil {
		t.Fatalf("read argv: %v", err)
	}
	got := string(argv)
	for _, want := range []string{"hello world", "nova", out, "1.25"} {
		if !strings.Contains(got, want) {
			t.Fatalf("argv missing %q: %s", want, got)
		}
	}
}

func TestCommandEngineRejectsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "silent.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	engine, err := NewCommandEngine([]string{script, "{text}", "{output}"})
	if err != nil {
		t.Fatalf("NewCommandEngine: %v", err)
	}
	err = engine.Synthesize(context.Background(), Request{
		Text:       "hello",
		OutputPath: filepath.Join(dir, "missing.mp3"),
	})
	if err == nil {
		t.Fatal("expected error when tool writes nothing")
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewElevenLabs("secret", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	out := filepath.Join(t.TempDir(), "narration.mp3")
	err := client.Synthesize(context.Background(), Request{
		Text:       "hello",
		Voice:      "voice-123",
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if gotPath != "/v1/text-to-speech/voice-123" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("unexpected api key header: %s", gotKey)
	}
	if data, _ := os.ReadFile(out); string(data) != "mp3-bytes" {
		t.Fatalf("unexpected audio contents: %q", data)
	}
}

func TestElevenLabsSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewElevenLabs("secret", WithBaseURL(server.URL))
	err := client.Synthesize(context.Background(), Request{
		Text:       "hello",
		Voice:      "voice-123",
		OutputPath: filepath.Join(t.TempDir(), "narration.mp3"),
	})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected http 429 error, got %v", err)
	}
}

func TestForEngine(t *testing.T) {
	cfg := config.TTS{Command: []string{"speak", "{text}", "{output}"}, APIKey: "k"}

	engine, err := ForEngine("command", cfg)
	if err != nil {
		t.Fatalf("ForEngine command: %v", err)
	}
	if engine.Name() != "command" {
		t.Fatalf("unexpected engine: %s", engine.Name())
	}

	engine, err = ForEngine("elevenlabs", cfg)
	if err != nil {
		t.Fatalf("ForEngine elevenlabs: %v", err)
	}
	if engine.Name() != "elevenlabs" {
		t.Fatalf("unexpected engine: %s", engine.Name())
	}

	if _, err := ForEngine("mystery", cfg); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}
