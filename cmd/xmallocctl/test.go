package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/xmalloc/alloc"
	"github.com/joshuapare/xmalloc/internal/checks"
)

var (
	testIndex int
	testList  bool
	testStats bool
)

func init() {
	cmd := newTestCmd()
	cmd.Flags().IntVarP(&testIndex, "test", "t", -1, "Run only the test with this index")
	cmd.Flags().BoolVar(&testList, "list", false, "List the available tests")
	cmd.Flags().BoolVar(&testStats, "stats", false, "Print allocator statistics afterwards")
	rootCmd.AddCommand(cmd)
}

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the allocator self-tests",
		Long: `The test command runs the built-in allocator checks against a fresh heap.
Checks share one allocator and run in order, so later checks see the heap the
earlier ones left behind.

Example:
  xmallocctl test
  xmallocctl test -t 2
  xmallocctl test --list
  xmallocctl test --compat --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest()
		},
	}
	return cmd
}

// checkResult is the JSON form of checks.Result.
type checkResult struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

func runTest() error {
	if testList {
		return listTests()
	}

	cfg, err := allocConfig(alloc.DefaultRegionSize)
	if err != nil {
		return err
	}
	a := alloc.New(cfg)
	defer a.Reset() //nolint:errcheck // process is about to exit

	printVerbose("Allocator: %s, %s coalescing, capacity %d\n",
		cfg.Policy, cfg.Coalesce, cfg.FreeListCapacity)

	var w io.Writer = infoWriter()
	if jsonOut {
		w = io.Discard
	}

	var results []checks.Result
	if testIndex >= 0 {
		r, err := checks.RunOne(w, a, testIndex)
		if err != nil {
			return err
		}
		results = []checks.Result{r}
	} else {
		results = checks.Run(w, a)
	}

	if jsonOut {
		out := make([]checkResult, 0, len(results))
		for _, r := range results {
			cr := checkResult{Index: r.Index, Name: r.Name, Passed: r.Passed()}
			if r.Err != nil {
				cr.Error = r.Err.Error()
			}
			out = append(out, cr)
		}
		if err := printJSON(out); err != nil {
			return err
		}
	}

	if testStats && !jsonOut {
		a.PrintStats(infoWriter())
	}

	failed := 0
	for _, r := range results {
		if !r.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s: %d of %d tests failed", styled(errorStyle, "FAIL"), failed, len(results))
	}
	printVerbose("%s\n", styled(successStyle, "all tests passed"))
	return nil
}

func listTests() error {
	if jsonOut {
		type entry struct {
			Index int    `json:"index"`
			Name  string `json:"name"`
		}
		out := make([]entry, 0, len(checks.All))
		for i, c := range checks.All {
			out = append(out, entry{i, c.Name})
		}
		return printJSON(out)
	}
	for i, c := range checks.All {
		printInfo("%2d  %s\n", i, c.Name)
	}
	return nil
}
