package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/joshuapare/xmalloc/alloc"
	"github.com/joshuapare/xmalloc/internal/stress"
)

// resetFlags restores every flag variable to its default. Cobra only assigns
// flags that appear on the command line, so values leak between Execute calls.
func resetFlags() {
	verbose, quiet, jsonOut, noColor = false, false, false, true

	regionSize = 0
	policyName = alloc.BestFit.String()
	coalesceName = alloc.CoalesceIndexed.String()
	capacity = 0
	splitOnShrink = false
	compat = false

	testIndex, testList, testStats = -1, false, false

	stressIterations = stress.DefaultIterations
	stressSeed = 1
	stressSystem = false
	stressStats = false
	stressDump = false
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	saved := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = saved })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// assertJSON checks that output is valid JSON and decodes it into v
func assertJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}
