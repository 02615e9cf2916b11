package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/build"
	"reel/internal/cache"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/project"
	"reel/internal/services/ffmpeg"
	"reel/internal/services/renderer"
	"reel/internal/services/tts"
	"reel/internal/sources"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var forceStages []string
	var forceSegments []string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "build <manifest>",
		Short: "Build the project video, reusing cached stages",
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

			logger, err := logging.NewForBuild(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			builder, err := newBuilder(cfg, p, store, logger)
			if err != nil {
				return err
			}

			opts := build.Options{
				ForceSegments: forceSegments,
				OutputPath:    outputPath,
			}
			for _, name := range forceStages {
				opts.ForceStages = append(opts.ForceStages, cache.Stage(name))
			}

			report, buildErr := builder.Build(cmd.Context(), p, opts)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return buildErr
		},
	}

	cmd.Flags().StringSliceVar(&forceStages, "force", nil, "Stages to rebuild regardless of cache (source, narration, render, combine, export)")
	cmd.Flags().StringSliceVar(&forceSegments, "segment", nil, "Limit forced rebuilds to these segment ids")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the export to this path instead of the output directory")
	return cmd
}

// newBuilder wires configured collaborators into a build orchestrator. The
// synthesizer is only constructed when the manifest enables narration; the
// orchestrator never invokes it otherwise.
func newBuilder(cfg *config.Config, p *project.Project, store *cache.Store, logger *slog.Logger) (*build.Builder, error) {
	resolver, err := sources.NewResolver(nil, p.Generators)
	if err != nil {
		return nil, err
	}

	var synth tts.Synthesizer
	if p.Narration.Enabled() {
		synth, err = tts.ForEngine(p.Narration.Engine, cfg.TTS)
		if err != nil {
			return nil, err
		}
	}

	collab := build.Collaborators{
		Synthesizer: synth,
		Renderer:    renderer.NewBridge(cfg.Renderer.ProjectDir, renderer.WithNodeBinary(cfg.Renderer.NodeBinary)),
		Combiner:    ffmpeg.NewMuxer(ffmpeg.WithBinary(cfg.FFmpeg.Binary)),
		Prober:      build.FFprobeProber{Binary: cfg.FFmpeg.ProbeBinary},
	}
	return build.New(cfg, store, resolver, collab, logger), nil
}

func printReport(out io.Writer, report *build.Report) {
	rows := make([][]string, 0, len(report.Segments))
	for _, seg := range report.Segments {
		summary := ""
		for _, stage := range cache.SegmentStages {
			if outcome, ok := seg.Outcomes[stage]; ok {
				if summary != "" {
					summary += " "
				}
				summary += fmt.Sprintf("%s=%s", stage, outcome)
			}
		}
		state := "ok"
		if seg.Failed() {
			state = "failed"
		}
		rows = append(rows, []string{seg.ID, state, summary})
	}
	fmt.Fprintln(out, renderTable([]string{"Segment", "Result", "Stages"}, rows))
	if report.ExportPath != "" {
		suffix := ""
		if report.ExportHit {
			suffix = " (cached)"
		}
		fmt.Fprintf(out, "Export: %s%s\n", report.ExportPath, suffix)
	}
	fmt.Fprintf(out, "Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
}
