// Package framework contains the low-level implementation of test harness infrastructure
// that is not specific to the application under test.
//
// The general model is:
//
// 1. A Suite acquires its external resources through an ordered list of setup steps. Each
// step may return a release function, and every acquired resource is released in reverse
// order when the suite ends, whatever the outcome of setup or of the tests.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// 3. Waiting for some external condition is done with PollUntil, which retries a predicate
// at a fixed interval until it succeeds or a deadline passes.
//
// The domain-specific code that knows what is being tested is responsible for providing
// the setup steps and a domain-specific test API on top of the test context.
package framework
