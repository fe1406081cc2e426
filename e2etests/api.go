package e2etests

import (
	"github.com/tauri-postgres/tauri-e2e/framework"
	"github.com/tauri-postgres/tauri-e2e/webdriver"

	"github.com/stretchr/testify/require"
)

// T represents a test or subtest in the end-to-end suite.
//
// It implements the same basic functionality as Go's testing.T, in an environment outside of the Go
// test runner, with the debug logging provided by the framework package. To make assertions, pass the
// *T to the assert and require packages as if it were a *testing.T.
//
// It also gives access to the WebDriver session that the suite opened during setup. The element
// methods fail the test and exit immediately if the element cannot be found or read, so tests do not
// need to check errors themselves.
type T struct {
	context *framework.Context
	session *webdriver.Session
	env     *Environment
}

func newTestScope(context *framework.Context, session *webdriver.Session, env *Environment) *T {
	return &T{context: context, session: session, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.session, t.env))
	})
}

// Debug logs some debug output for the test. The output is passed to the test logger at the end
// of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer schedules cleanup to run when the test ends.
func (t *T) Defer(fn func()) {
	t.context.Defer(fn)
}

// RequireCheckEnabled skips this test unless the named optional check was turned on.
func (t *T) RequireCheckEnabled(check string) {
	if !t.env.OptionalChecks[check] {
		t.context.SkipWithReason("optional check " + check + " is not enabled")
	}
}

// RequireElement waits up to the configured element timeout for an element to appear. If it does
// not, the test fails with the lookup error, which can be recognized with errors.Is as a timeout.
func (t *T) RequireElement(loc webdriver.Locator) *webdriver.Element {
	el, err := t.session.AwaitElement(loc, t.env.ElementTimeout)
	if err != nil {
		t.context.Fail(err)
		t.FailNow()
	}
	t.Debug("found element %s", loc)
	return el
}

// RequireText reads an element's text.
func (t *T) RequireText(el *webdriver.Element) string {
	text, err := el.Text()
	require.NoError(t, err)
	t.Debug("text of %s is %q", el.Locator(), text)
	return text
}

// RequireCSSValue reads the computed value of a CSS property of an element.
func (t *T) RequireCSSValue(el *webdriver.Element, property string) string {
	value, err := el.CSSValue(property)
	require.NoError(t, err)
	t.Debug("%s of %s is %q", property, el.Locator(), value)
	return value
}
