package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/drzzm32/SimElectricity/pkg/analysis"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/netlist"
)

var (
	configPath  string
	logLevel    string
	backend     string
	metricsFile string
	logFormat   string

	config = analysis.DefaultConfig()
	logger = slog.Default()

	rootCmd = &cobra.Command{
		Use:   "energynet",
		Short: "Quasi-static DC solver for energy networks",
		Long: `energynet reads a network netlist and solves the node voltages with
Newton-Raphson iteration.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: writeMetrics,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "energynet.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "linear solver backend (sparse or dense)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write solver metrics in text format to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "auto, text or json; auto picks text on a terminal")

	rootCmd.AddCommand(solveCmd, sweepCmd, gridCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	config, err = analysis.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		config.Solver.Backend = backend
	}
	if cmd.Flags().Changed("log-level") {
		config.LogLevel = logLevel
	}
	if err := config.Validate(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	handler, err := newLogHandler(os.Stderr, logFormat, level)
	if err != nil {
		return err
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

func newLogHandler(w *os.File, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "auto":
		if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
			return slog.NewTextHandler(w, opts), nil
		}
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func writeMetrics(cmd *cobra.Command, args []string) error {
	if metricsFile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer)
}

// loadNetwork parses a netlist file and returns it with the solver settings
// after its .options are applied.
func loadNetwork(path string) (*netlist.NetlistData, *circuit.Network, analysis.SolverConfig, error) {
	solver := config.Solver

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, solver, fmt.Errorf("reading netlist file: %w", err)
	}
	data, err := netlist.Parse(string(content))
	if err != nil {
		return nil, nil, solver, fmt.Errorf("parsing %s: %w", path, err)
	}
	net, err := netlist.BuildNetwork(data)
	if err != nil {
		return nil, nil, solver, fmt.Errorf("building %s: %w", path, err)
	}
	if err := solver.Apply(data.Options); err != nil {
		return nil, nil, solver, fmt.Errorf("%s .options: %w", path, err)
	}

	logger.Debug("netlist loaded",
		slog.String("path", path),
		slog.String("title", data.Title),
		slog.Int("elements", len(data.Elements)),
		slog.Int("nodes", net.Len()))
	return data, net, solver, nil
}
