package e2etests

import (
	"context"
	"errors"
	"time"

	"github.com/tauri-postgres/tauri-e2e/builder"
	"github.com/tauri-postgres/tauri-e2e/framework"
	"github.com/tauri-postgres/tauri-e2e/servicedef"
	"github.com/tauri-postgres/tauri-e2e/webdriver"
)

// CheckContrast enables the test that the application's background is dark enough.
const CheckContrast = "contrast"

// AllOptionalChecks lists every check that is off unless requested.
var AllOptionalChecks = []string{CheckContrast}

// Builder produces the application binary. *builder.Builder satisfies it.
type Builder interface {
	Build(ctx context.Context) error
}

// Bridge is the WebDriver bridge process. *driver.Process satisfies it.
type Bridge interface {
	Start() error
	Stop() error
}

// Environment is everything the suite needs to set itself up.
type Environment struct {
	// Builder is optional; if nil, the existing binary is used as is.
	Builder      Builder
	BuildTimeout time.Duration

	Bridge Bridge

	// ApplicationPath is the binary that the bridge is asked to launch.
	ApplicationPath string

	DriverURL      string
	BrowserName    string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	ElementTimeout time.Duration
	Timeouts       servicedef.SessionTimeouts

	OptionalChecks map[string]bool

	Logger framework.Logger
}

// RunTestSuite builds the application, starts the bridge, opens a session, runs every test, and
// then closes the session and stops the bridge, whatever happened before.
func RunTestSuite(
	ctx context.Context,
	env Environment,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	if env.Logger == nil {
		env.Logger = framework.NullLogger()
	}
	if env.BuildTimeout <= 0 {
		env.BuildTimeout = builder.DefaultTimeout
	}
	if env.ElementTimeout <= 0 {
		env.ElementTimeout = webdriver.DefaultElementTimeout
	}

	var session *webdriver.Session
	suite := framework.Suite{
		Logger: env.Logger,
		Setup: []framework.SetupStep{
			{Name: "build application", Run: env.build},
			{Name: "start tauri-driver", Run: env.startBridge},
			{
				Name: "open WebDriver session",
				Run: func(ctx context.Context) (framework.Release, error) {
					s, err := env.openSession(ctx)
					if err != nil {
						return nil, err
					}
					session = s
					return s.Close, nil
				},
			},
		},
	}

	return suite.Run(ctx, filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, session, &env)

		t.Run("Hello Tauri", DoHelloTauriTests)
	})
}

// A failed build is only logged. If it left no binary behind, opening the session fails.
func (env *Environment) build(ctx context.Context) (framework.Release, error) {
	if env.Builder == nil {
		env.Logger.Printf("Skipping build")
		return nil, nil
	}
	buildCtx, cancel := context.WithTimeout(ctx, env.BuildTimeout)
	defer cancel()
	if err := env.Builder.Build(buildCtx); err != nil {
		env.Logger.Printf("Build did not succeed: %s", err)
	}
	return nil, nil
}

func (env *Environment) startBridge(context.Context) (framework.Release, error) {
	if env.Bridge == nil {
		return nil, errors.New("no WebDriver bridge configured")
	}
	if err := env.Bridge.Start(); err != nil {
		return nil, err
	}
	return env.Bridge.Stop, nil
}

func (env *Environment) openSession(ctx context.Context) (*webdriver.Session, error) {
	if err := builder.ValidateExecutable(env.ApplicationPath); err != nil {
		return nil, err
	}
	return webdriver.Open(ctx, webdriver.Options{
		URL:            env.DriverURL,
		ConnectTimeout: env.ConnectTimeout,
		RequestTimeout: env.RequestTimeout,
		Params: servicedef.SessionParams{
			Application: env.ApplicationPath,
			BrowserName: env.BrowserName,
			Timeouts:    env.Timeouts,
		},
		Logger: framework.PrefixLogger("webdriver", env.Logger),
	})
}
