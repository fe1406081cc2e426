package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/tauri-postgres/tauri-e2e/builder"
	"github.com/tauri-postgres/tauri-e2e/driver"
	"github.com/tauri-postgres/tauri-e2e/e2etests"
	"github.com/tauri-postgres/tauri-e2e/framework"
	"github.com/tauri-postgres/tauri-e2e/servicedef"
	"github.com/tauri-postgres/tauri-e2e/webdriver"
)

type commandParams struct {
	projectDir     string
	binaryName     string
	build          bool
	buildTimeout   time.Duration
	driverPath     string
	driverURL      string
	browserName    string
	connectTimeout time.Duration
	requestTimeout time.Duration
	elementTimeout time.Duration
	implicitWaitMS int
	checkContrast  bool
	filters        framework.RegexFilters
	debug          bool
	debugAll       bool
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(filepath.Base(args[0]), flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.projectDir, "project-dir", builder.DefaultProjectDir, "directory of the Tauri crate to build")
	fs.StringVar(&c.binaryName, "binary", builder.DefaultBinaryName, "name of the release binary that the build produces")
	fs.BoolVar(&c.build, "build", true, "run cargo build --release before testing")
	fs.DurationVar(&c.buildTimeout, "build-timeout", builder.DefaultTimeout, "how long to let the build run")
	fs.StringVar(&c.driverPath, "driver", driver.DefaultPath(), "path of the tauri-driver executable")
	fs.StringVar(&c.driverURL, "driver-url", webdriver.DefaultURL, "WebDriver endpoint that tauri-driver listens on")
	fs.StringVar(&c.browserName, "browser-name", servicedef.BrowserNameWry, "browserName capability to request")
	fs.DurationVar(&c.connectTimeout, "connect-timeout", webdriver.DefaultConnectTimeout, "how long to wait for tauri-driver to accept connections")
	fs.DurationVar(&c.requestTimeout, "request-timeout", webdriver.DefaultRequestTimeout, "how long to wait for tauri-driver to answer a single WebDriver command")
	fs.DurationVar(&c.elementTimeout, "element-timeout", webdriver.DefaultElementTimeout, "how long to wait for an element to appear")
	fs.IntVar(&c.implicitWaitMS, "implicit-wait-ms", -1, "implicit wait timeout to request for the session, if any")
	fs.BoolVar(&c.checkContrast, "check-contrast", false, "also check that the page background is dark")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return false
	}
	if c.buildTimeout <= 0 || c.connectTimeout <= 0 || c.requestTimeout <= 0 || c.elementTimeout <= 0 {
		fmt.Fprintln(errOut, "timeouts must be positive")
		fs.Usage()
		return false
	}
	return true
}

// tauri-driver resolves relative paths against its own working directory, so send it an absolute one.
func (c *commandParams) applicationPath() string {
	path := builder.ApplicationPath(c.projectDir, c.binaryName)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (c *commandParams) optionalChecks() map[string]bool {
	return map[string]bool{e2etests.CheckContrast: c.checkContrast}
}

func (c *commandParams) disabledChecks() []string {
	var ret []string
	enabled := c.optionalChecks()
	for _, check := range e2etests.AllOptionalChecks {
		if !enabled[check] {
			ret = append(ret, check)
		}
	}
	return ret
}

func (c *commandParams) sessionTimeouts() servicedef.SessionTimeouts {
	var t servicedef.SessionTimeouts
	if c.implicitWaitMS >= 0 {
		t.ImplicitMS = ldvalue.NewOptionalInt(c.implicitWaitMS)
	}
	return t
}

func (c *commandParams) environment(logger framework.Logger) e2etests.Environment {
	env := e2etests.Environment{
		BuildTimeout: c.buildTimeout,
		Bridge: driver.NewProcess(driver.Config{
			Path:   c.driverPath,
			Logger: framework.PrefixLogger("tauri-driver", logger),
		}),
		ApplicationPath: c.applicationPath(),
		DriverURL:       c.driverURL,
		BrowserName:     c.browserName,
		ConnectTimeout:  c.connectTimeout,
		RequestTimeout:  c.requestTimeout,
		ElementTimeout:  c.elementTimeout,
		Timeouts:        c.sessionTimeouts(),
		OptionalChecks:  c.optionalChecks(),
		Logger:          logger,
	}
	if c.build {
		env.Builder = builder.Builder{
			Dir:    c.projectDir,
			Stdout: os.Stderr,
			Stderr: os.Stderr,
			Logger: framework.PrefixLogger("build", logger),
		}
	}
	return env
}
