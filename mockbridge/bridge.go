// Package mockbridge is an in-process stand-in for tauri-driver. It implements just enough of the
// W3C WebDriver protocol for the harness to open a session, find elements, read their text and
// CSS values, and close the session, and it records the capabilities it was given so tests can
// check what a real bridge would have received.
package mockbridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/tauri-postgres/tauri-e2e/framework"
)

const sessionPathPrefix = "/session"

// The key W3C WebDriver uses for element references, and the one older clients look for.
const (
	webElementKey       = "element-6066-11e4-a52e-4f735466cecf"
	legacyWebElementKey = "ELEMENT"
)

// ElementSpec describes an element in the fake document.
type ElementSpec struct {
	ID   string
	Tag  string
	Text string
	CSS  map[string]string
}

// Bridge is an http.Handler that behaves like a WebDriver endpoint.
type Bridge struct {
	elements     []ElementSpec
	sessions     map[string]ldvalue.Value
	received     []ldvalue.Value
	closed       []string
	lastID       int
	sessionError int
	logger       framework.Logger
	lock         sync.Mutex
}

func New(logger framework.Logger) *Bridge {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Bridge{
		sessions: make(map[string]ldvalue.Value),
		logger:   logger,
	}
}

// AddElement puts an element into the fake document, replacing any element with the same ID.
func (b *Bridge) AddElement(e ElementSpec) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, existing := range b.elements {
		if e.ID != "" && existing.ID == e.ID {
			b.elements[i] = e
			return
		}
	}
	b.elements = append(b.elements, e)
}

// AddElementAfter adds the element once delay has passed, like a page that is still rendering.
func (b *Bridge) AddElementAfter(e ElementSpec, delay time.Duration) {
	time.AfterFunc(delay, func() { b.AddElement(e) })
}

// FailNewSessions makes every new-session request fail with the given HTTP status.
func (b *Bridge) FailNewSessions(status int) {
	b.lock.Lock()
	b.sessionError = status
	b.lock.Unlock()
}

// ReceivedCapabilities returns the capabilities of every new-session request, in order.
func (b *Bridge) ReceivedCapabilities() []ldvalue.Value {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]ldvalue.Value(nil), b.received...)
}

// ActiveSessions is the number of sessions that have been created and not deleted.
func (b *Bridge) ActiveSessions() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.sessions)
}

// ClosedSessions returns the IDs of deleted sessions, in the order they were deleted.
func (b *Bridge) ClosedSessions() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string(nil), b.closed...)
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimSuffix(req.URL.Path, "/")
	b.logger.Printf("%s %s", req.Method, path)

	if path == "/status" && req.Method == http.MethodGet {
		writeValue(w, http.StatusOK, map[string]interface{}{"ready": true, "message": "mock bridge ready"})
		return
	}
	if path == sessionPathPrefix && req.Method == http.MethodPost {
		b.newSession(w, req)
		return
	}
	if !strings.HasPrefix(path, sessionPathPrefix+"/") {
		writeError(w, http.StatusNotFound, "unknown command", "unrecognized path "+path)
		return
	}

	parts := strings.Split(strings.TrimPrefix(path, sessionPathPrefix+"/"), "/")
	sessionID := parts[0]
	b.lock.Lock()
	_, ok := b.sessions[sessionID]
	b.lock.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "invalid session id", "no active session "+sessionID)
		return
	}

	switch {
	case len(parts) == 1 && req.Method == http.MethodDelete:
		b.deleteSession(w, sessionID)
	case len(parts) == 2 && parts[1] == "element" && req.Method == http.MethodPost:
		b.findElement(w, req)
	case len(parts) == 4 && parts[1] == "element" && parts[3] == "text" && req.Method == http.MethodGet:
		b.withElement(w, parts[2], func(e ElementSpec) {
			writeValue(w, http.StatusOK, e.Text)
		})
	case len(parts) == 5 && parts[1] == "element" && parts[3] == "css" && req.Method == http.MethodGet:
		b.withElement(w, parts[2], func(e ElementSpec) {
			writeValue(w, http.StatusOK, e.CSS[parts[4]])
		})
	default:
		writeError(w, http.StatusNotFound, "unknown command", fmt.Sprintf("unsupported %s %s", req.Method, path))
	}
}

func (b *Bridge) newSession(w http.ResponseWriter, req *http.Request) {
	var body ldvalue.Value
	data, err := io.ReadAll(req.Body)
	if err == nil {
		err = json.Unmarshal(data, &body)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument", "malformed new session request")
		return
	}
	caps := body.GetByKey("capabilities").GetByKey("alwaysMatch")
	if caps.IsNull() {
		caps = body.GetByKey("desiredCapabilities")
	}
	b.logger.Printf("New session requested with capabilities: %s", caps.JSONString())

	b.lock.Lock()
	b.received = append(b.received, caps)
	if status := b.sessionError; status != 0 {
		b.lock.Unlock()
		writeError(w, status, "session not created", "mock bridge was told to refuse sessions")
		return
	}
	b.lastID++
	id := "session-" + strconv.Itoa(b.lastID)
	b.sessions[id] = caps
	b.lock.Unlock()

	writeValue(w, http.StatusOK, map[string]interface{}{
		"sessionId":    id,
		"capabilities": caps,
	})
}

func (b *Bridge) deleteSession(w http.ResponseWriter, id string) {
	b.lock.Lock()
	delete(b.sessions, id)
	b.closed = append(b.closed, id)
	b.lock.Unlock()
	writeValue(w, http.StatusOK, nil)
}

type findElementParams struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

func (b *Bridge) findElement(w http.ResponseWriter, req *http.Request) {
	var params findElementParams
	if err := json.NewDecoder(req.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument", "malformed find element request")
		return
	}

	b.lock.Lock()
	index := b.resolve(params)
	b.lock.Unlock()
	if index < 0 {
		writeError(w, http.StatusNotFound, "no such element",
			fmt.Sprintf("no element matches %s %q", params.Using, params.Value))
		return
	}
	ref := "element-" + strconv.Itoa(index)
	writeValue(w, http.StatusOK, map[string]string{webElementKey: ref, legacyWebElementKey: ref})
}

// resolve must be called with the lock held.
func (b *Bridge) resolve(params findElementParams) int {
	var id, tag string
	switch params.Using {
	case "id":
		id = params.Value
	case "css selector":
		if strings.HasPrefix(params.Value, "#") {
			id = strings.TrimPrefix(params.Value, "#")
		} else {
			tag = params.Value
		}
	case "tag name":
		tag = params.Value
	default:
		return -1
	}
	for i, e := range b.elements {
		if (id != "" && e.ID == id) || (tag != "" && e.Tag == tag) {
			return i
		}
	}
	return -1
}

func (b *Bridge) withElement(w http.ResponseWriter, ref string, action func(ElementSpec)) {
	index, err := strconv.Atoi(strings.TrimPrefix(ref, "element-"))
	b.lock.Lock()
	if err != nil || index < 0 || index >= len(b.elements) {
		b.lock.Unlock()
		writeError(w, http.StatusNotFound, "no such element", "unknown element reference "+ref)
		return
	}
	e := b.elements[index]
	b.lock.Unlock()
	action(e)
}

func writeValue(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(map[string]interface{}{"value": value})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeValue(w, status, map[string]string{
		"error":      code,
		"message":    message,
		"stacktrace": "",
	})
}
