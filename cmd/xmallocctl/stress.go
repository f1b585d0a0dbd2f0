package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/xmalloc/internal/logger"
	"github.com/joshuapare/xmalloc/internal/stress"
)

var (
	stressIterations int
	stressSeed       int64
	stressSystem     bool
	stressStats      bool
	stressDump       bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressIterations, "iterations", "n", stress.DefaultIterations, "Number of allocations")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&stressSystem, "system", stress.DefaultSystem, "Use the Go runtime allocator instead of xmalloc")
	cmd.Flags().BoolVar(&stressStats, "stats", false, "Print allocator statistics afterwards")
	cmd.Flags().BoolVar(&stressDump, "dump", false, "Print the heap layout before the blocks are freed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress [text]",
		Short: "Run the randomized allocation workload",
		Long: `The stress command allocates a number of blocks, mostly tiny and now and
then between 1 KiB and 1 MiB, writes a prefix of the text into each, resizes
some of them, then verifies and frees every block.

Example:
  xmallocctl stress
  xmallocctl stress "hello, heap" --iterations 1000 --seed 7
  xmallocctl stress --system
  xmallocctl stress --dump --stats -v`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(args)
		},
	}
	return cmd
}

func runStress(args []string) error {
	scfg := stress.Config{
		Iterations: stressIterations,
		Seed:       stressSeed,
		Logger:     logger.L,
	}
	if len(args) == 1 {
		scfg.Text = args[0]
	}

	var xb *stress.XmallocBackend
	if stressSystem {
		scfg.Backend = stress.NewSystemBackend()
	} else {
		cfg, err := allocConfig(stress.DefaultRegionSize)
		if err != nil {
			return err
		}
		xb = stress.NewXmallocBackend(cfg)
		defer xb.A.Reset() //nolint:errcheck // process is about to exit
		scfg.Backend = xb
	}

	if stressDump {
		if xb == nil {
			return errors.New("--dump needs the xmalloc backend")
		}
		scfg.AfterAlloc = func(*stress.Report) {
			if jsonOut {
				return
			}
			blocks := xb.A.Blocks()
			printInfo("%s\n", styled(headerStyle, "Heap layout"))
			printInfo("%s\n\n", renderHeapMap(blocks, xb.A.Region().Size(), 64, 4))
			writeBlockTable(infoWriter(), blocks)
			printInfo("\n")
		}
	}

	printVerbose("Backend: %s, %d iterations, seed %d\n", scfg.Backend.Name(), stressIterations, stressSeed)
	rep, runErr := stress.Run(scfg)

	if jsonOut {
		out := struct {
			*stress.Report
			Error string `json:"error,omitempty"`
		}{Report: rep}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else if rep != nil {
		printReport(rep)
	}

	if stressStats && xb != nil && !jsonOut {
		xb.A.PrintStats(infoWriter())
	}

	if runErr != nil {
		return fmt.Errorf("%s: %w", styled(errorStyle, "FAIL"), runErr)
	}
	printInfo("%s\n", styled(successStyle, "OK"))
	return nil
}

func printReport(rep *stress.Report) {
	p := message.NewPrinter(language.English)
	w := infoWriter()

	if verbose {
		for _, r := range rep.Records {
			line := p.Sprintf("[%d] size %d", r.Index, r.Size)
			if r.Large {
				line += " (large)"
			}
			if r.NewSize > 0 {
				line += p.Sprintf(" -> %d", r.NewSize)
				if r.Moved {
					line += " (moved)"
				}
			}
			p.Fprintf(w, "%s, copied %d chars\n", line, r.Copied)
		}
		p.Fprintln(w)
	}

	p.Fprintf(w, "%s %s\n", styled(labelStyle, "Backend:        "), styled(valueStyle, rep.Backend))
	p.Fprintf(w, "%s %d (seed %d)\n", styled(labelStyle, "Iterations:     "), rep.Iterations, rep.Seed)
	p.Fprintf(w, "%s %d (large: %d)\n", styled(labelStyle, "Allocations:    "), rep.Allocs, rep.Large)
	p.Fprintf(w, "%s %d (moved: %d)\n", styled(labelStyle, "Reallocations:  "), rep.Reallocs, rep.Moves)
	p.Fprintf(w, "%s %d\n", styled(labelStyle, "Frees:          "), rep.Frees)
	p.Fprintf(w, "%s %d bytes\n", styled(labelStyle, "Bytes requested:"), rep.Bytes)
}
