package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/drzzm32/SimElectricity/pkg/grid"
	"github.com/drzzm32/SimElectricity/pkg/util"
)

var (
	gridSteps   int
	gridWorkers int

	gridCmd = &cobra.Command{
		Use:   "grid <netlist>...",
		Short: "Step several independent networks together",
		Long: `grid registers every netlist as an independent network and steps them
concurrently. A network whose Jacobian turns singular is quarantined and
skipped in later steps.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGrid,
	}
)

func init() {
	gridCmd.Flags().IntVar(&gridSteps, "steps", 1, "steps to run")
	gridCmd.Flags().IntVar(&gridWorkers, "workers", 0, "networks solved in parallel (default from config)")
}

func runGrid(cmd *cobra.Command, args []string) error {
	if gridSteps < 1 {
		return fmt.Errorf("--steps must be at least 1, got %d", gridSteps)
	}

	gridConfig := config
	if cmd.Flags().Changed("workers") {
		gridConfig.Grid.Workers = gridWorkers
	}
	g, err := grid.New(gridConfig, logger)
	if err != nil {
		return err
	}

	names := make(map[uuid.UUID]string, len(args))
	for _, path := range args {
		data, net, _, err := loadNetwork(path)
		if err != nil {
			return err
		}
		if len(data.Options) > 0 {
			logger.Warn("grid uses the shared solver config, .options ignored", "path", path)
		}
		id, err := g.Add(net)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		names[id] = path
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	for step := 1; step <= gridSteps; step++ {
		reports, err := g.Step(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "step %d\n", step)
		for _, r := range reports {
			switch {
			case r.Err != nil:
				fmt.Fprintf(out, "  %-24s error: %v", names[r.ID], r.Err)
				if r.Quarantined {
					fmt.Fprint(out, " (quarantined)")
				}
				fmt.Fprintln(out)
			default:
				fmt.Fprintf(out, "  %-24s iterations=%d converged=%v max residual=%s\n",
					names[r.ID], r.Result.Iterations, r.Result.Converged,
					util.FormatValueFactor(r.Result.MaxResidual, "A"))
			}
		}
	}
	return nil
}
