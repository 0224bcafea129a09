package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/drzzm32/SimElectricity/pkg/analysis"
	"github.com/drzzm32/SimElectricity/pkg/netlist"
	"github.com/drzzm32/SimElectricity/pkg/util"
)

var (
	sweepSource string
	sweepStart  float64
	sweepStop   float64
	sweepStep   float64
	plotPath    string

	sweepCmd = &cobra.Command{
		Use:   "sweep <netlist>",
		Short: "Step a voltage source and solve each point",
		Long: `sweep steps a voltage source through start..stop and solves the network
at every point, warm-starting from the previous one. Without flags the
.dc line of the netlist is used.`,
		Args: cobra.ExactArgs(1),
		RunE: runSweep,
	}
)

func init() {
	sweepCmd.Flags().StringVar(&sweepSource, "source", "", "voltage source element or node name")
	sweepCmd.Flags().Float64Var(&sweepStart, "start", 0, "first source voltage")
	sweepCmd.Flags().Float64Var(&sweepStop, "stop", 0, "last source voltage")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 0, "voltage increment")
	sweepCmd.Flags().StringVar(&plotPath, "plot", "", "save a plot of the node voltages (png, svg or pdf)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	data, net, solverConfig, err := loadNetwork(args[0])
	if err != nil {
		return err
	}

	param := data.DCParam
	flags := cmd.Flags()
	if flags.Changed("source") {
		param.Source = sweepSource
	}
	if flags.Changed("start") {
		param.Start = sweepStart
	}
	if flags.Changed("stop") {
		param.Stop = sweepStop
	}
	if flags.Changed("step") {
		param.Increment = sweepStep
	}
	if param.Source == "" {
		return fmt.Errorf("no sweep source: add a .dc line or pass --source")
	}

	op, err := analysis.NewOP(solverConfig, analysis.WithLogger(logger))
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewDCSweep(op, data.SourceNode(param.Source), param.Start, param.Stop, param.Increment)
	if err != nil {
		return err
	}
	if err := analyzer.Setup(net); err != nil {
		return err
	}
	if err := analyzer.Execute(); err != nil {
		return err
	}

	results := analyzer.GetResults()
	printSweep(cmd.OutOrStdout(), data, results)

	if plotPath != "" {
		if err := util.PlotSweep(results, "SWEEP1", data.Title, plotPath); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}
	return nil
}

func printSweep(w io.Writer, data *netlist.NetlistData, results map[string][]float64) {
	sweep1 := results["SWEEP1"]
	voltageNames := util.ResultKeys(results, "V(")

	fmt.Fprintf(w, "%s\n", data.Title)
	fmt.Fprintf(w, "\nDC Sweep Analysis Results (%d points):\n", len(sweep1))
	fmt.Fprintln(w, "Sweep Values    Node Voltages")
	fmt.Fprintln(w, "------------------------------------------------")
	for i := range sweep1 {
		fmt.Fprintf(w, "V=%-11s ", util.FormatValueFactor(sweep1[i], "V"))
		for _, name := range voltageNames {
			fmt.Fprintf(w, "%s=%s  ", name, util.FormatValueFactor(results[name][i], "V"))
		}
		fmt.Fprintf(w, "iter=%d", int(results["ITER"][i]))
		if results["CONVERGED"][i] == 0 {
			fmt.Fprint(w, " (not converged)")
		}
		fmt.Fprintln(w)
	}
}
