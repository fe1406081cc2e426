package framework

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resourceLog struct {
	events []string
}

func (r *resourceLog) step(name string, acquireErr error, releaseErr error) SetupStep {
	return SetupStep{
		Name: name,
		Run: func(context.Context) (Release, error) {
			r.events = append(r.events, "acquire "+name)
			if acquireErr != nil {
				return nil, acquireErr
			}
			return func() error {
				r.events = append(r.events, "release "+name)
				return releaseErr
			}, nil
		},
	}
}

func passingTests(c *Context) {
	c.Run("group", func(c *Context) {
		c.Run("passes", func(c *Context) {})
	})
}

func failingTests(c *Context) {
	c.Run("group", func(c *Context) {
		c.Run("fails", func(c *Context) {
			assert.Equal(c, "expected", "actual")
		})
		c.Run("passes", func(c *Context) {})
	})
}

func TestSuiteSuccessfulRunReleasesInReverseOrder(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{r.step("a", nil, nil), r.step("b", nil, nil)}}

	results := s.Run(context.Background(), nil, nil, passingTests)

	assert.True(t, results.OK())
	assert.Equal(t, []string{"acquire a", "acquire b", "release b", "release a"}, r.events)
	assert.Equal(t, []SuiteState{NotStarted, SettingUp, Ready, Running, TearingDown, Finished}, results.States)
	assert.Equal(t, Finished, results.FinalState())
	assert.Equal(t, Finished, s.State())
}

func TestSuiteSetupFailureSkipsTestsAndReleasesAcquiredResources(t *testing.T) {
	r := &resourceLog{}
	setupErr := errors.New("no binary")
	s := Suite{Setup: []SetupStep{r.step("a", nil, nil), r.step("b", setupErr, nil), r.step("c", nil, nil)}}
	testsRan := false

	results := s.Run(context.Background(), nil, nil, func(c *Context) { testsRan = true })

	assert.False(t, testsRan)
	assert.False(t, results.OK())
	require.NotNil(t, results.SetupError)
	assert.Equal(t, "b", results.SetupError.Step)
	assert.True(t, errors.Is(results.SetupError, setupErr))
	assert.Len(t, results.Tests, 0)
	assert.Len(t, results.Failures, 0)
	assert.Equal(t, []string{"acquire a", "acquire b", "release a"}, r.events)
	assert.Equal(t, Failed, results.FinalState())
	assert.NotContains(t, results.States, Running)
}

func TestSuiteTestFailureStillTearsDown(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{r.step("process", nil, nil), r.step("session", nil, nil)}}

	results := s.Run(context.Background(), nil, nil, failingTests)

	assert.False(t, results.OK())
	assert.Nil(t, results.SetupError)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "group/fails", results.Failures[0].TestID.String())
	assert.Equal(t, []string{"acquire process", "acquire session", "release session", "release process"}, r.events)
	assert.Equal(t, []SuiteState{NotStarted, SettingUp, Ready, Running, Failed, TearingDown, Failed}, results.States)
}

func TestSuiteTeardownErrorsDoNotFailRun(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{r.step("process", nil, errors.New("already exited")), r.step("session", nil, nil)}}

	results := s.Run(context.Background(), nil, nil, passingTests)

	assert.True(t, results.OK())
	require.Len(t, results.TeardownErrors, 1)
	assert.Contains(t, results.TeardownErrors[0].Error(), "already exited")
	assert.Equal(t, []string{"acquire process", "acquire session", "release session", "release process"}, r.events)
	assert.Equal(t, Finished, results.FinalState())
}

func TestSuitePanicInSetupIsSetupError(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{
		r.step("a", nil, nil),
		{Name: "explodes", Run: func(context.Context) (Release, error) { panic("boom") }},
	}}

	results := s.Run(context.Background(), nil, nil, passingTests)

	require.NotNil(t, results.SetupError)
	assert.Equal(t, "explodes", results.SetupError.Step)
	assert.Contains(t, results.SetupError.Error(), "boom")
	assert.Equal(t, []string{"acquire a", "release a"}, r.events)
}

func TestSuitePanicInReleaseIsTeardownError(t *testing.T) {
	s := Suite{Setup: []SetupStep{{
		Name: "a",
		Run: func(context.Context) (Release, error) {
			return func() error { panic("bad release") }, nil
		},
	}}}

	results := s.Run(context.Background(), nil, nil, passingTests)

	assert.True(t, results.OK())
	require.Len(t, results.TeardownErrors, 1)
	assert.Contains(t, results.TeardownErrors[0].Error(), "bad release")
}

func TestSuiteCanBeRunAgain(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{r.step("a", nil, nil)}}

	first := s.Run(context.Background(), nil, nil, failingTests)
	second := s.Run(context.Background(), nil, nil, failingTests)

	assert.Equal(t, first.States, second.States)
	assert.Equal(t, len(first.Tests), len(second.Tests))
	assert.Equal(t, len(first.Failures), len(second.Failures))
	assert.Equal(t, []string{"acquire a", "release a", "acquire a", "release a"}, r.events)
}

func TestSuitePanicOutsideAnyTestFailsRun(t *testing.T) {
	r := &resourceLog{}
	s := Suite{Setup: []SetupStep{r.step("a", nil, nil)}}

	results := s.Run(context.Background(), nil, nil, func(c *Context) {
		var m map[string]int
		m["x"] = 1
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "", results.Failures[0].TestID.String())
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test")
	assert.Len(t, results.Tests, 0)
	assert.Equal(t, []string{"acquire a", "release a"}, r.events)
	assert.Equal(t, []SuiteState{NotStarted, SettingUp, Ready, Running, Failed, TearingDown, Failed}, results.States)
}

func TestSuiteFailNowOutsideAnyTestFailsRun(t *testing.T) {
	s := Suite{}

	results := s.Run(context.Background(), nil, nil, func(c *Context) {
		c.Run("passes", func(c *Context) {})
		require.Fail(c, "environment is unusable")
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "", results.Failures[0].TestID.String())
	assert.Len(t, results.Tests, 1)
	assert.Equal(t, Failed, results.FinalState())

	var buf bytes.Buffer
	PrintResults(&buf, results)
	assert.Contains(t, buf.String(), "(outside of any test)")
}

func TestSuiteStateString(t *testing.T) {
	assert.Equal(t, "TearingDown", TearingDown.String())
	assert.Equal(t, "SuiteState(99)", SuiteState(99).String())
}
