package framework

import (
	"context"
	"fmt"
	"runtime/debug"
)

// SuiteState is a stage in the life of a Suite.
type SuiteState int

const (
	NotStarted SuiteState = iota
	SettingUp
	Ready
	Running
	TearingDown
	Finished

	// Failed is entered on a setup error or when any test fails. Teardown still runs
	// afterward, but the suite ends in Failed rather than Finished.
	Failed
)

func (s SuiteState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case SettingUp:
		return "SettingUp"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case TearingDown:
		return "TearingDown"
	case Finished:
		return "Finished"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("SuiteState(%d)", int(s))
	}
}

// Release gives back a resource that a setup step acquired.
type Release func() error

// SetupStep acquires one resource for the suite. If it returns a non-nil Release, that function
// is called during teardown.
type SetupStep struct {
	Name string
	Run  func(ctx context.Context) (Release, error)
}

type heldResource struct {
	step    string
	release Release
}

// Suite runs setup steps in order, then the tests, then releases whatever setup acquired.
type Suite struct {
	Setup  []SetupStep
	Logger Logger

	state   SuiteState
	failed  bool
	held    []heldResource
	results Results
}

// Run drives the suite through its whole lifecycle and returns the outcome. The tests function is
// only called if every setup step succeeded.
func (s *Suite) Run(
	ctx context.Context,
	filter Filter,
	testLogger TestLogger,
	tests func(*Context),
) Results {
	if s.Logger == nil {
		s.Logger = NullLogger()
	}
	s.results = Results{}
	s.held = nil
	s.failed = false
	s.state = NotStarted
	s.results.States = append(s.results.States, NotStarted)

	func() {
		defer s.teardown()
		s.setUpAndRunTests(ctx, filter, testLogger, tests)
	}()
	return s.results
}

func (s *Suite) setUpAndRunTests(
	ctx context.Context,
	filter Filter,
	testLogger TestLogger,
	tests func(*Context),
) {
	s.transition(SettingUp)
	for _, step := range s.Setup {
		if err := s.runSetupStep(ctx, step); err != nil {
			s.results.SetupError = &SetupError{Step: step.Name, Err: err}
			s.Logger.Printf("Setup failed: %s", s.results.SetupError)
			s.fail()
			return
		}
	}
	s.transition(Ready)

	s.transition(Running)
	Run(&s.results, filter, testLogger, tests)
	if len(s.results.Failures) > 0 {
		s.fail()
	}
}

func (s *Suite) runSetupStep(ctx context.Context, step SetupStep) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %+v\n%s", r, string(debug.Stack()))
		}
	}()
	s.Logger.Printf("Setup: %s", step.Name)
	release, err := step.Run(ctx)
	if release != nil {
		s.held = append(s.held, heldResource{step: step.Name, release: release})
	}
	return err
}

// teardown releases resources in reverse order of acquisition. It is deferred so that it runs on
// every exit path.
func (s *Suite) teardown() {
	s.transition(TearingDown)
	for i := len(s.held) - 1; i >= 0; i-- {
		h := s.held[i]
		if err := s.release(h); err != nil {
			err = fmt.Errorf("releasing %q: %w", h.step, err)
			s.Logger.Printf("Teardown error (ignored): %s", err)
			s.results.TeardownErrors = append(s.results.TeardownErrors, err)
		}
	}
	s.held = nil
	if s.failed {
		s.transition(Failed)
	} else {
		s.transition(Finished)
	}
}

func (s *Suite) release(h heldResource) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %+v", r)
		}
	}()
	return h.release()
}

func (s *Suite) fail() {
	if !s.failed {
		s.failed = true
		s.transition(Failed)
	}
}

func (s *Suite) transition(to SuiteState) {
	if s.state != to {
		s.Logger.Printf("Suite state: %s -> %s", s.state, to)
	}
	s.state = to
	s.results.States = append(s.results.States, to)
}

// State is the current state of the suite.
func (s *Suite) State() SuiteState {
	return s.state
}
