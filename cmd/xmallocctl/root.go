package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/xmalloc/alloc"
	"github.com/joshuapare/xmalloc/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool

	// Allocator flags
	regionSize    int
	policyName    string
	coalesceName  string
	capacity      int
	splitOnShrink bool
	compat        bool
)

// stdout is where command output goes. Tests replace it.
var stdout io.Writer = os.Stdout

var rootCmd = &cobra.Command{
	Use:   "xmallocctl",
	Short: "Exercise and inspect the xmalloc allocator",
	Long: `xmallocctl drives the xmalloc heap allocator: it runs the built-in
self-tests, replays the randomized stress workload against xmalloc or the
Go runtime allocator, and shows the heap layout interactively.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogger()
		return nil
	},
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and per-operation allocator logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Allocator flags
	rootCmd.PersistentFlags().IntVar(&regionSize, "region-size", 0, "Heap region size in bytes, rounded up to 1 MiB (default depends on command)")
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", alloc.BestFit.String(), "Free block selection: best-fit or first-fit")
	rootCmd.PersistentFlags().StringVar(&coalesceName, "coalesce", alloc.CoalesceIndexed.String(), "Coalescing: indexed or scan")
	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 0, "Free list capacity (0 = unbounded)")
	rootCmd.PersistentFlags().BoolVar(&splitOnShrink, "split-on-shrink", false, "Return the tail of a shrunk block to the free list")
	rootCmd.PersistentFlags().BoolVar(&compat, "compat", false, "Classic engine: first-fit, scan coalescing, 1024-slot free list")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger routes allocator diagnostics to stderr. --verbose turns on
// per-operation records, --json switches the record format.
func initLogger() {
	opts := logger.Options{Enabled: true, JSON: jsonOut}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	logger.Init(opts)
}

// allocConfig builds the allocator configuration from the global flags.
// defaultRegion applies when --region-size is not given.
func allocConfig(defaultRegion int) (*alloc.Config, error) {
	var cfg alloc.Config
	if compat {
		cfg = alloc.ConfigCompat
	} else {
		policy, err := alloc.ParseFitPolicy(policyName)
		if err != nil {
			return nil, err
		}
		mode, err := alloc.ParseCoalesceMode(coalesceName)
		if err != nil {
			return nil, err
		}
		cfg = alloc.Config{Policy: policy, Coalesce: mode, FreeListCapacity: capacity}
	}

	cfg.RegionSize = defaultRegion
	if regionSize > 0 {
		cfg.RegionSize = regionSize
	}
	if capacity < 0 {
		return nil, fmt.Errorf("invalid --capacity %d", capacity)
	}
	cfg.SplitOnShrink = splitOnShrink
	cfg.Logger = logger.L
	cfg.OnFatal = func(err error) {
		printError("%v\n", err)
		os.Exit(1)
	}
	return &cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// infoWriter is stdout, or io.Discard in quiet mode.
func infoWriter() io.Writer {
	if quiet {
		return io.Discard
	}
	return stdout
}
