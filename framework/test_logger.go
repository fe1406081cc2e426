package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TestLogger receives progress notifications while tests run.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}

var (
	failColor = color.New(color.FgRed, color.Bold)
	passColor = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// PrintResults writes a summary of a suite run.
func PrintResults(out io.Writer, results Results) {
	if results.SetupError != nil {
		failColor.Fprintln(out, "Test suite could not be set up; no tests were run:")
		for _, line := range strings.Split(results.SetupError.Error(), "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	if len(results.TeardownErrors) > 0 {
		warnColor.Fprintln(out, "Problems while tearing down the test suite (ignored):")
		for _, err := range results.TeardownErrors {
			fmt.Fprintf(out, "  %s\n", err)
		}
	}
	if results.SetupError != nil {
		return
	}

	skipped := 0
	for _, t := range results.Tests {
		if t.Skipped {
			skipped++
		}
	}
	if len(results.Failures) == 0 {
		passColor.Fprintf(out, "All tests passed (%d run, %d skipped)\n", len(results.Tests)-skipped, skipped)
		return
	}
	failColor.Fprintf(out, "FAILED TESTS (%d of %d):\n", len(results.Failures), len(results.Tests)-skipped)
	for _, f := range results.Failures {
		name := f.TestID.String()
		if name == "" {
			name = "(outside of any test)"
		}
		fmt.Fprintf(out, "  * %s\n", name)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
}
