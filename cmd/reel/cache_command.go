package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/cache"
	"reel/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the artifact cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheInvalidateCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func withStore(ctx *commandContext, fn func(*cobra.Command, []string, *cache.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		store, err := cache.Open(cfg, logging.NewNop())
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, args, store)
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached artifact counts and sizes per stage",
		RunE: withStore(ctx, func(cmd *cobra.Command, _ []string, store *cache.Store) error {
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(stats))
			var artifacts int
			var bytes int64
			for _, s := range stats {
				rows = append(rows, []string{string(s.Stage), strconv.Itoa(s.Artifacts), humanBytes(s.Bytes)})
				artifacts += s.Artifacts
				bytes += s.Bytes
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Stage", "Artifacts", "Size"}, rows, 1, 2))
			fmt.Fprintf(out, "Total: %d artifacts, %s\n", artifacts, humanBytes(bytes))
			return nil
		}),
	}
}

func newCacheInvalidateCommand(ctx *commandContext) *cobra.Command {
	var stages []string

	cmd := &cobra.Command{
		Use:   "invalidate <segment-id>...",
		Short: "Drop cached artifacts for segments",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *cache.Store) error {
			var stageFilter []cache.Stage
			for _, name := range stages {
				stage := cache.Stage(name)
				if !cache.Known(stage) {
					return fmt.Errorf("unknown stage %q", name)
				}
				stageFilter = append(stageFilter, stage)
			}
			total := 0
			for _, id := range args {
				removed, err := store.Invalidate(cmd.Context(), id, stageFilter...)
				if err != nil {
					return err
				}
				total += removed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %d artifacts\n", total)
			return nil
		}),
	}

	cmd.Flags().StringSliceVar(&stages, "stage", nil, "Limit invalidation to these stages")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact and record",
		RunE: withStore(ctx, func(cmd *cobra.Command, _ []string, store *cache.Store) error {
			if stage != "" {
				s := cache.Stage(stage)
				if !cache.Known(s) {
					return fmt.Errorf("unknown stage %q", stage)
				}
				removed, err := store.ClearStage(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s artifacts\n", removed, stage)
				return nil
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		}),
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Clear only this stage")
	return cmd
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div, exp := int64(unit), 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(v)/float64(div), "KMGTPE"[exp])
}
