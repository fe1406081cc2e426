package webdriver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/tauri-postgres/tauri-e2e/framework"
	"github.com/tauri-postgres/tauri-e2e/mockbridge"
	"github.com/tauri-postgres/tauri-e2e/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postgresPlaceholder = "Enter a postgres query..."

func withBridge(t *testing.T, action func(*mockbridge.Bridge, string)) {
	bridge := mockbridge.New(nil)
	httphelpers.WithServer(bridge, func(server *httptest.Server) {
		action(bridge, server.URL+"/")
	})
}

func openSession(t *testing.T, url string, params servicedef.SessionParams) *Session {
	s, err := Open(context.Background(), Options{URL: url, ConnectTimeout: time.Second, Params: params})
	require.NoError(t, err)
	return s
}

func TestOpenSendsCapabilities(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		s := openSession(t, url, servicedef.SessionParams{Application: "/opt/app/tauri-app", BrowserName: "wry"})
		defer s.Close()

		assert.NotEmpty(t, s.ID())
		received := bridge.ReceivedCapabilities()
		require.Len(t, received, 1)
		assert.Equal(t, "/opt/app/tauri-app", servicedef.ApplicationFromCapabilities(received[0]))
		assert.Equal(t, "wry", received[0].GetByKey(servicedef.CapabilityBrowserName).StringValue())
		assert.Equal(t, 1, bridge.ActiveSessions())
	})
}

func TestOpenFailsWhenBridgeRefusesSession(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		bridge.FailNewSessions(http.StatusInternalServerError)

		_, err := Open(context.Background(), Options{URL: url, ConnectTimeout: time.Second})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not create WebDriver session")
		assert.Equal(t, 0, bridge.ActiveSessions())
	})
}

func TestOpenFailsOnServerError(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusInternalServerError), func(server *httptest.Server) {
		_, err := Open(context.Background(), Options{URL: server.URL, ConnectTimeout: time.Second})
		assert.Error(t, err)
	})
}

func TestOpenTimesOutIfNothingIsListening(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = Open(context.Background(), Options{URL: "http://" + addr + "/", ConnectTimeout: time.Millisecond * 300})
	require.Error(t, err)
	assert.True(t, errors.Is(err, framework.ErrTimeout))
}

func TestAwaitEndpointWaitsForLateListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	go func() {
		time.Sleep(time.Millisecond * 200)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		server := &http.Server{Handler: mockbridge.New(nil)}
		_ = server.Serve(l)
	}()

	assert.NoError(t, AwaitEndpoint(context.Background(), "http://"+addr+"/", time.Second*5))
}

func TestAwaitEndpointStopsWhenContextIsCancelled(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = AwaitEndpoint(ctx, "http://"+addr+"/", time.Second*5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, framework.ErrTimeout))
}

func TestAwaitElementAndReadText(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		bridge.AddElement(mockbridge.ElementSpec{ID: "postgres", Tag: "textarea", Text: postgresPlaceholder})
		s := openSession(t, url, servicedef.SessionParams{Application: "/app"})
		defer s.Close()

		el, err := s.AwaitElement(ByID("postgres"), time.Second)
		require.NoError(t, err)
		text, err := el.Text()
		require.NoError(t, err)
		assert.Equal(t, postgresPlaceholder, text)
		assert.Equal(t, ByID("postgres"), el.Locator())
	})
}

func TestAwaitElementWaitsForLateElement(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		s := openSession(t, url, servicedef.SessionParams{Application: "/app"})
		defer s.Close()
		bridge.AddElementAfter(mockbridge.ElementSpec{ID: "postgres", Text: postgresPlaceholder}, time.Millisecond*300)

		el, err := s.AwaitElement(ByID("postgres"), time.Second*5)
		require.NoError(t, err)
		text, err := el.Text()
		require.NoError(t, err)
		assert.Equal(t, postgresPlaceholder, text)
	})
}

func TestAwaitElementTimesOut(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		s := openSession(t, url, servicedef.SessionParams{Application: "/app"})
		defer s.Close()

		_, err := s.AwaitElement(ByID("postgres"), time.Millisecond*300)
		require.Error(t, err)
		assert.True(t, errors.Is(err, framework.ErrTimeout))
		assert.True(t, errors.Is(err, ErrNoSuchElement))
	})
}

func TestCSSValue(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		bridge.AddElement(mockbridge.ElementSpec{Tag: "body", CSS: map[string]string{"background-color": "rgb(47, 47, 47)"}})
		s := openSession(t, url, servicedef.SessionParams{Application: "/app"})
		defer s.Close()

		el, err := s.AwaitElement(ByCSS("body"), time.Second)
		require.NoError(t, err)
		value, err := el.CSSValue("background-color")
		require.NoError(t, err)
		assert.Equal(t, "rgb(47, 47, 47)", value)
	})
}

func TestCloseOnlyOnce(t *testing.T) {
	withBridge(t, func(bridge *mockbridge.Bridge, url string) {
		s := openSession(t, url, servicedef.SessionParams{Application: "/app"})

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, []string{s.ID()}, bridge.ClosedSessions())
		assert.Equal(t, 0, bridge.ActiveSessions())

		_, err := s.FindElement(ByID("postgres"))
		assert.True(t, errors.Is(err, ErrSessionClosed))
		_, err = s.AwaitElement(ByID("postgres"), time.Second)
		assert.True(t, errors.Is(err, ErrSessionClosed))
		assert.False(t, errors.Is(err, framework.ErrTimeout))
	})
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "#postgres", ByID("postgres").String())
	assert.Equal(t, "body", ByCSS("body").String())
	assert.Equal(t, `xpath="//div"`, Locator{By: "xpath", Value: "//div"}.String())
}
