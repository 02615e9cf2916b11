package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reel/internal/deps"
	"reel/internal/services/renderer"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools a build needs are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Default(cfg))
			statuses = append(statuses, deps.CheckNodeVersion(cfg.Renderer.NodeBinary))
			statuses = append(statuses, checkRenderer(cmd, cfg.Renderer.ProjectDir, cfg.Renderer.NodeBinary))

			rows := make([][]string, 0, len(statuses))
			failures := 0
			for _, status := range statuses {
				mark := "ok"
				if !status.Available {
					mark = "missing"
					failures++
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Description
				}
				rows = append(rows, []string{status.Name, mark, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Status", "Detail"}, rows))
			if failures > 0 {
				return fmt.Errorf("%d dependency check(s) failed", failures)
			}
			return nil
		},
	}
}

func checkRenderer(cmd *cobra.Command, projectDir, nodeBinary string) deps.Status {
	status := deps.Status{
		Name:        "Renderer project",
		Command:     projectDir,
		Description: "Composition project with a render entrypoint",
	}
	if projectDir == "" {
		status.Detail = "renderer.project_dir is not configured"
		return status
	}
	bridge := renderer.NewBridge(projectDir, renderer.WithNodeBinary(nodeBinary))
	if err := bridge.CheckEnvironment(cmd.Context()); err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = true
	return status
}
