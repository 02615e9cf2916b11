package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// GridRequest stacks independently rendered cell videos into one frame.
type GridRequest struct {
	CellPaths  []string
	OutputPath string
	Columns    int
	// Width and Height size the final grid; each cell is scaled to an even
	// share of the frame.
	Width  int
	Height int
	Codec  string
	FPS    int
}

// ComposeGrid arranges cell videos with the xstack filter. Cells render and
// cache independently; only this cheap stacking step reruns when one changes.
func (m *Muxer) ComposeGrid(ctx context.Context, req GridRequest) error {
	args, err := buildGridArgs(req)
	if err != nil {
		return err
	}
	return m.run(ctx, args)
}

func buildGridArgs(req GridRequest) ([]string, error) {
	n := len(req.CellPaths)
	if n < 2 {
		return nil, errors.New("grid requires at least two cells")
	}
	if req.OutputPath == "" {
		return nil, errors.New("output path required")
	}
	cols := req.Columns
	if cols <= 0 {
		cols = 2
	}
	if cols > n {
		cols = n
	}
	rows := (n + cols - 1) / cols
	if req.Width <= 0 || req.Height <= 0 {
		return nil, errors.New("grid dimensions required")
	}
	cellWidth := req.Width / cols
	cellHeight := req.Height / rows

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, path := range req.CellPaths {
		args = append(args, "-i", path)
	}

	var filters []string
	inputs := make([]string, 0, n)
	for i := range req.CellPaths {
		label := fmt.Sprintf("[s%d]", i)
		filters = append(filters, fmt.Sprintf("[%d:v]scale=%d:%d,setsar=1%s", i, cellWidth, cellHeight, label))
		inputs = append(inputs, label)
	}
	filters = append(filters, strings.Join(inputs, "")+"xstack=inputs="+strconv.Itoa(n)+":layout="+gridLayout(n, cols, cellWidth, cellHeight)+"[grid]")

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[grid]",
		"-an",
	)
	if req.Codec != "" {
		args = append(args, "-c:v", req.Codec)
	}
	if req.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(req.FPS))
	}
	args = append(args, req.OutputPath)
	return args, nil
}

// gridLayout produces xstack layout coordinates in row-major order, e.g.
// "0_0|640_0|0_360|640_360" for a 2x2 grid of 640x360 cells.
func gridLayout(n, cols, cellWidth, cellHeight int) string {
	coords := make([]string, 0, n)
	for i := 0; i < n; i++ {
		x := (i % cols) * cellWidth
		y := (i / cols) * cellHeight
		coords = append(coords, strconv.Itoa(x)+"_"+strconv.Itoa(y))
	}
	return strings.Join(coords, "|")
}
