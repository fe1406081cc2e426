// Package servicedef defines the parameters the harness sends to the WebDriver bridge when it
// opens a session.
package servicedef

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	// CapabilityTauriOptions is the vendor-specific capability that carries the application path.
	CapabilityTauriOptions = "tauri:options"
	CapabilityBrowserName  = "browserName"
	CapabilityTimeouts     = "timeouts"

	TauriOptionApplication = "application"

	// BrowserNameWry identifies the webview engine used by Tauri applications.
	BrowserNameWry = "wry"
)

// SessionParams describes the session to create. It is immutable once the session exists.
type SessionParams struct {
	Application string          `json:"application"`
	BrowserName string          `json:"browserName"`
	Timeouts    SessionTimeouts `json:"timeouts"`
}

// SessionTimeouts are the optional W3C session timeouts, in milliseconds.
type SessionTimeouts struct {
	ImplicitMS ldvalue.OptionalInt `json:"implicit,omitempty"`
	PageLoadMS ldvalue.OptionalInt `json:"pageLoad,omitempty"`
	ScriptMS   ldvalue.OptionalInt `json:"script,omitempty"`
}

func (t SessionTimeouts) IsDefined() bool {
	return t.ImplicitMS.IsDefined() || t.PageLoadMS.IsDefined() || t.ScriptMS.IsDefined()
}

func (t SessionTimeouts) AsValue() ldvalue.Value {
	b := ldvalue.ObjectBuild()
	setOptionalInt(b, "implicit", t.ImplicitMS)
	setOptionalInt(b, "pageLoad", t.PageLoadMS)
	setOptionalInt(b, "script", t.ScriptMS)
	return b.Build()
}

func setOptionalInt(b ldvalue.ObjectBuilder, name string, value ldvalue.OptionalInt) {
	if value.IsDefined() {
		b.Set(name, ldvalue.Int(value.IntValue()))
	}
}

// Capabilities returns the capability object for a new-session request, for example:
//
//	{"tauri:options": {"application": "/path/to/app"}, "browserName": "wry"}
func (p SessionParams) Capabilities() ldvalue.Value {
	browserName := p.BrowserName
	if browserName == "" {
		browserName = BrowserNameWry
	}
	b := ldvalue.ObjectBuild().
		Set(CapabilityTauriOptions, ldvalue.ObjectBuild().
			Set(TauriOptionApplication, ldvalue.String(p.Application)).
			Build()).
		Set(CapabilityBrowserName, ldvalue.String(browserName))
	if p.Timeouts.IsDefined() {
		b.Set(CapabilityTimeouts, p.Timeouts.AsValue())
	}
	return b.Build()
}

// ApplicationFromCapabilities extracts the application path from a capability object, as a bridge
// would. It returns "" if the path is missing or is not a string.
func ApplicationFromCapabilities(caps ldvalue.Value) string {
	return caps.GetByKey(CapabilityTauriOptions).GetByKey(TauriOptionApplication).StringValue()
}
