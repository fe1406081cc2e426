// Package e2etests contains the end-to-end tests for the tauri-postgres application and their
// supporting API.
//
// Infrastructure that does not depend on the application, such as the suite lifecycle and the
// test context, is in the lower-level framework package. Talking to the application goes through
// the webdriver package.
package e2etests
