package webdriver

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tebeka/selenium"
)

// DefaultRequestTimeout bounds a single WebDriver command. Creating a session launches the
// application, so this is generous.
const DefaultRequestTimeout = time.Second * 30

// selenium sends every command through one package-level client. It is replaced once with a client
// whose per-request limit can be changed later without touching the client itself.
var (
	requestTimeout   atomic.Int64
	installTransport sync.Once
)

func setRequestTimeout(timeout time.Duration) {
	installTransport.Do(func() {
		selenium.HTTPClient = &http.Client{Transport: boundedTransport{next: http.DefaultTransport}}
	})
	requestTimeout.Store(int64(timeout))
}

type boundedTransport struct {
	next http.RoundTripper
}

func (t boundedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timeout := time.Duration(requestTimeout.Load())
	if timeout <= 0 {
		return t.next.RoundTrip(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

// selenium reads replies to the end but never closes them, so reaching EOF also releases the timer.
func (c cancelOnClose) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if err == io.EOF {
		c.cancel()
	}
	return n, err
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
