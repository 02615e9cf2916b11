package deps

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"reel/internal/config"
)

// minNodeMajor is the oldest Node release the renderer bridge supports.
const minNodeMajor = 18

// Default lists the external tools a build needs, resolved from config.
func Default(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpeg.Binary, Description: "Stream muxing and concatenation"},
		{Name: "FFprobe", Command: cfg.FFmpeg.ProbeBinary, Description: "Media duration measurement"},
		{Name: "Node.js", Command: cfg.Renderer.NodeBinary, Description: "Visual composition renderer"},
	}
}

// CheckNodeVersion verifies the Node binary exists and is recent enough for
// the renderer bridge.
func CheckNodeVersion(binary string) Status {
	status := Status{
		Name:        "Node.js version",
		Command:     strings.TrimSpace(binary),
		Description: fmt.Sprintf("Renderer requires Node %d or newer", minNodeMajor),
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	out, err := exec.Command(status.Command, "--version").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("run %s --version: %v", status.Command, err)
		return status
	}
	version := strings.TrimSpace(string(out))
	major, err := parseNodeMajor(version)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	if major < minNodeMajor {
		status.Detail = fmt.Sprintf("found %s, need %d+", version, minNodeMajor)
		return status
	}
	status.Available = true
	status.Detail = version
	return status
}

func parseNodeMajor(version string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(version), "v")
	head, _, _ := strings.Cut(trimmed, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("unparseable node version %q", version)
	}
	return major, nil
}
