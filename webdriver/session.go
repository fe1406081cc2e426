// Package webdriver is the harness's view of a remote WebDriver session. The protocol itself is
// spoken by github.com/tebeka/selenium; this package adds the waiting behavior the tests rely on
// and makes sure a session is closed exactly once.
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tebeka/selenium"

	"github.com/tauri-postgres/tauri-e2e/framework"
	"github.com/tauri-postgres/tauri-e2e/servicedef"
)

const (
	DefaultURL = "http://127.0.0.1:4444/"

	DefaultConnectTimeout = time.Second * 10
	DefaultElementTimeout = time.Second * 5

	pollInterval = time.Millisecond * 100
	dialTimeout  = time.Second
)

var (
	ErrNoSuchElement = errors.New("no such element")
	ErrSessionClosed = errors.New("WebDriver session is closed")
)

type Options struct {
	// URL is the bridge's WebDriver endpoint. Defaults to DefaultURL.
	URL string

	// ConnectTimeout bounds how long Open waits for the endpoint to accept connections.
	ConnectTimeout time.Duration

	// RequestTimeout bounds every WebDriver command, including the one that creates the session.
	// Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration

	Params servicedef.SessionParams
	Logger framework.Logger
}

// Session is one open WebDriver session.
type Session struct {
	wd        selenium.WebDriver
	id        string
	url       string
	logger    framework.Logger
	closed    bool
	closeOnce sync.Once
	lock      sync.Mutex
}

// Open waits for the bridge to accept connections and then creates a session with the capabilities
// described by opts.Params.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	setRequestTimeout(opts.RequestTimeout)
	logger := opts.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}

	if err := AwaitEndpoint(ctx, opts.URL, opts.ConnectTimeout); err != nil {
		return nil, err
	}

	caps := opts.Params.Capabilities()
	logger.Printf("Creating WebDriver session at %s with capabilities: %s", opts.URL, caps.JSONString())
	wd, err := newRemote(ctx, caps.AsArbitraryValue(), opts.URL)
	if err != nil {
		return nil, err
	}
	s := &Session{
		wd:     wd,
		id:     wd.SessionID(),
		url:    opts.URL,
		logger: logger,
	}
	logger.Printf("WebDriver session %s created", s.id)
	return s, nil
}

// AwaitEndpoint blocks until something accepts TCP connections at the host and port of rawURL.
func AwaitEndpoint(ctx context.Context, rawURL string, timeout time.Duration) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid WebDriver URL %q: %w", rawURL, err)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	_, err = framework.PollUntil("WebDriver endpoint "+rawURL, timeout, pollInterval, func() (struct{}, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return struct{}{}, fmt.Errorf("%w: %w", framework.ErrStopPolling, ctxErr)
		}
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			return struct{}{}, err
		}
		_ = conn.Close()
		return struct{}{}, nil
	})
	return err
}

type remoteResult struct {
	wd  selenium.WebDriver
	err error
}

// newRemote creates the session on another goroutine so that cancelling ctx is not held up by a
// bridge that never answers. A session created after the caller gave up is closed again.
func newRemote(ctx context.Context, caps interface{}, rawURL string) (selenium.WebDriver, error) {
	arbitrary, _ := caps.(map[string]interface{})
	done := make(chan remoteResult, 1)
	go func() {
		wd, err := selenium.NewRemote(selenium.Capabilities(arbitrary), urlPrefix(rawURL))
		done <- remoteResult{wd: wd, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("could not create WebDriver session at %s: %w", rawURL, r.err)
		}
		return r.wd, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				_ = r.wd.Quit()
			}
		}()
		return nil, fmt.Errorf("gave up creating WebDriver session at %s: %w", rawURL, ctx.Err())
	}
}

// selenium appends paths such as "/session" directly to the prefix.
func urlPrefix(rawURL string) string {
	return strings.TrimSuffix(rawURL, "/")
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) checkOpen() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// FindElement looks for an element once, without waiting.
func (s *Session) FindElement(loc Locator) (*Element, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	we, err := s.wd.FindElement(loc.By, loc.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoSuchElement, loc, err)
	}
	return &Element{we: we, locator: loc}, nil
}

// AwaitElement polls until the element is present or timeout elapses. Every lookup failure before
// the deadline is treated as "not there yet". A timeout error matches both ErrNoSuchElement and
// framework.ErrTimeout.
func (s *Session) AwaitElement(loc Locator, timeout time.Duration) (*Element, error) {
	if timeout <= 0 {
		timeout = DefaultElementTimeout
	}
	el, err := framework.PollUntil("element "+loc.String(), timeout, pollInterval, func() (*Element, error) {
		el, err := s.FindElement(loc)
		if errors.Is(err, ErrSessionClosed) {
			return nil, fmt.Errorf("%w: %w", framework.ErrStopPolling, err)
		}
		return el, err
	})
	if err != nil {
		if errors.Is(err, framework.ErrTimeout) {
			s.logger.Printf("Gave up waiting for %s after %s", loc, timeout)
		}
		return nil, err
	}
	s.logger.Printf("Found %s", loc)
	return el, nil
}

// Close ends the session. Only the first call talks to the bridge; later calls return nil.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.lock.Lock()
		s.closed = true
		s.lock.Unlock()
		s.logger.Printf("Closing WebDriver session %s", s.id)
		if quitErr := s.wd.Quit(); quitErr != nil {
			err = fmt.Errorf("could not close WebDriver session %s: %w", s.id, quitErr)
		}
	})
	return err
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s at %s", s.id, s.url)
}
