package deps

import (
	"os"
	"path/filepath"
	"testing"

	"reel/internal/config"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	dir := t.TempDir()
	present := writeStub(t, dir, "ffmpeg", "exit 0")

	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: present},
		{Name: "FFprobe", Command: filepath.Join(dir, "no-such-binary")},
		{Name: "Unset", Command: ""},
	})

	if !statuses[0].Available {
		t.Fatalf("present binary reported unavailable: %s", statuses[0].Detail)
	}
	if statuses[1].Available {
		t.Fatal("missing binary reported available")
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Fatalf("empty command status = %+v", statuses[2])
	}
}

func TestDefaultUsesConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.Binary = "/opt/ffmpeg/bin/ffmpeg"

	reqs := Default(&cfg)
	if len(reqs) != 3 {
		t.Fatalf("Default returned %d requirements, want 3", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg requirement = %q", reqs[0].Command)
	}
}

func TestCheckNodeVersion(t *testing.T) {
	dir := t.TempDir()

	modern := writeStub(t, dir, "node-modern", `echo "v20.11.1"`)
	if status := CheckNodeVersion(modern); !status.Available {
		t.Fatalf("modern node rejected: %s", status.Detail)
	}

	old := writeStub(t, dir, "node-old", `echo "v16.20.0"`)
	if status := CheckNodeVersion(old); status.Available {
		t.Fatal("node 16 accepted")
	}

	garbled := writeStub(t, dir, "node-garbled", `echo "not a version"`)
	if status := CheckNodeVersion(garbled); status.Available {
		t.Fatal("unparseable version accepted")
	}
}
