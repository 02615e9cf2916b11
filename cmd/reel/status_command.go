package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reel/internal/build"
	"reel/internal/cache"
	"reel/internal/logging"
	"reel/internal/project"
	"reel/internal/sources"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <manifest>",
		Short: "Show what a build would reuse and rebuild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer store.Close()

			// Status only reads the cache; no collaborator is ever invoked.
			resolver, err := sources.NewResolver(nil, p.Generators)
			if err != nil {
				return err
			}
			builder := build.New(cfg, store, resolver, build.Collaborators{}, logging.NewNop())
			status, err := builder.Status(cmd.Context(), p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(status.Segments))
			for _, seg := range status.Segments {
				rows = append(rows, []string{
					seg.ID,
					paintState(seg.States[cache.StageSource], colorize),
					paintState(seg.States[cache.StageNarration], colorize),
					paintState(seg.States[cache.StageRender], colorize),
					paintState(seg.States[cache.StageCombine], colorize),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Segment", "Source", "Narration", "Render", "Combine"}, rows))
			fmt.Fprintf(out, "Export: %s\n", paintState(status.Export, colorize))
			return nil
		},
	}
}

func paintState(state cache.State, colorize bool) string {
	label := string(state)
	if label == "" {
		label = string(cache.StateUnknown)
	}
	if !colorize {
		return label
	}
	switch state {
	case cache.StateHit:
		return ansiGreen + label + ansiReset
	case cache.StateStale:
		return ansiYellow + label + ansiReset
	case cache.StateAbsent:
		return ansiRed + label + ansiReset
	case cache.StateSkipped:
		return ansiDim + label + ansiReset
	}
	return label
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
