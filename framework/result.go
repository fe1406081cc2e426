package framework

import (
	"fmt"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult

	// SetupError is non-nil if the suite could not acquire its resources. No tests run in
	// that case.
	SetupError *SetupError

	// TeardownErrors are problems releasing resources at the end of the suite. They are
	// reported but do not make the run fail.
	TeardownErrors []error

	// States is every state the suite passed through, in order.
	States []SuiteState
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return r.SetupError == nil && len(r.Failures) == 0
}

// FinalState is the state the suite ended in, or NotStarted if it never ran.
func (r Results) FinalState() SuiteState {
	if len(r.States) == 0 {
		return NotStarted
	}
	return r.States[len(r.States)-1]
}

// Result returns the outcome of the test with the given path, if it was run or skipped.
func (r Results) Result(path ...string) (TestResult, bool) {
	name := TestID{Path: path}.String()
	for _, t := range r.Tests {
		if t.TestID.String() == name {
			return t, true
		}
	}
	return TestResult{}, false
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// SetupError is a failure to acquire one of the suite's resources. It belongs to the suite as a
// whole, never to an individual test.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup step %q failed: %s", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
