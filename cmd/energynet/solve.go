package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/drzzm32/SimElectricity/pkg/analysis"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/util"
)

const watchDebounce = 50 * time.Millisecond

var (
	verbose bool
	steps   int
	watch   bool

	solveCmd = &cobra.Command{
		Use:   "solve <netlist>",
		Short: "Solve the operating point of a network",
		Long: `solve finds the operating point of a network. With --watch the netlist is
solved again after every change, warm-started from the voltages of the
previous solve for nodes that kept their names.`,
		Args: cobra.ExactArgs(1),
		RunE: runSolve,
	}
)

func init() {
	solveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the first Jacobian of every step")
	solveCmd.Flags().IntVar(&steps, "steps", 1, "warm-started steps to run")
	solveCmd.Flags().BoolVarP(&watch, "watch", "w", false, "solve again whenever the netlist changes")
}

func runSolve(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("--steps must be at least 1, got %d", steps)
	}

	path := args[0]
	out := cmd.OutOrStdout()
	net, err := solveFile(out, path, nil)
	if err != nil || !watch {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchNetlist(ctx, out, path, net)
}

// solveFile loads the netlist at path, warm-starts it from prev when given
// and runs the requested steps.
func solveFile(out io.Writer, path string, prev *circuit.Network) (*circuit.Network, error) {
	data, net, solverConfig, err := loadNetwork(path)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		carried := net.CarryVoltages(prev)
		logger.Debug("voltages carried over", "path", path, "nodes", carried)
	}

	opts := []analysis.Option{analysis.WithLogger(logger)}
	if verbose {
		opts = append(opts, analysis.WithJacobianDump(out))
	}
	op, err := analysis.NewOP(solverConfig, opts...)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "%s\n", data.Title)
	for step := 1; step <= steps; step++ {
		res, err := op.Run(net)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "step %d: iterations=%d converged=%v max residual=%s\n",
			step, res.Iterations, res.Converged, util.FormatValueFactor(res.MaxResidual, "A"))
	}

	if err := printReadings(out, net, solverConfig.Params()); err != nil {
		return nil, err
	}
	return net, nil
}

// watchNetlist solves path again after it is written, until ctx is done.
// A netlist that fails to load or solve is reported and the last good
// network is kept as the warm start.
func watchNetlist(ctx context.Context, out io.Writer, path string, prev *circuit.Network) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	logger.Info("watching netlist", "path", target)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				debounce = time.After(watchDebounce)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintln(out)
			next, err := solveFile(out, path, prev)
			if err != nil {
				logger.Error("solve after change failed", "path", path, "error", err)
				continue
			}
			prev = next
		}
	}
}

func printReadings(w io.Writer, net *circuit.Network, params circuit.Params) error {
	fmt.Fprintln(w, "\nNode Readings:")
	fmt.Fprintf(w, "%-12s %-22s %12s %12s %12s %12s\n", "node", "kind", "voltage", "current", "power", "resistance")
	for i := range net.Nodes {
		r, err := net.Probe(i, params)
		if err != nil {
			return err
		}
		resistance := "-"
		if !math.IsNaN(r.Resistance) {
			resistance = util.FormatValueFactor(r.Resistance, "Ohm")
		}
		fmt.Fprintf(w, "%-12s %-22s %12s %12s %12s %12s\n",
			net.Nodes[i].Name, r.Kind,
			util.FormatValueFactor(r.Voltage, "V"),
			util.FormatValueFactor(r.Current, "A"),
			util.FormatValueFactor(r.Power, "W"),
			resistance)
	}
	return nil
}
