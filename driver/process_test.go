package driver

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tauri-postgres/tauri-e2e/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCommand(t *testing.T, name string) string {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on Unix commands")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s is not available: %s", name, err)
	}
	return path
}

func TestStartAndStop(t *testing.T) {
	sleep := requireCommand(t, "sleep")
	logger := &framework.CapturingLogger{}
	p := NewProcess(Config{Path: sleep, Args: []string{"60"}, Logger: logger})

	require.NoError(t, p.Start())
	pid := p.Pid()
	assert.NotZero(t, pid)
	assert.True(t, p.Running())
	assert.True(t, processExists(pid))

	require.NoError(t, p.Stop())
	assert.False(t, p.Running())
	assert.False(t, processExists(pid), "tauri-driver process was left behind")
}

func TestStartFailsIfBinaryIsMissing(t *testing.T) {
	p := NewProcess(Config{Path: filepath.Join(t.TempDir(), "tauri-driver")})

	err := p.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDriverNotFound))
	assert.False(t, p.Running())
	assert.Zero(t, p.Pid())
}

func TestStartTwiceIsAnError(t *testing.T) {
	sleep := requireCommand(t, "sleep")
	p := NewProcess(Config{Path: sleep, Args: []string{"60"}})

	require.NoError(t, p.Start())
	defer p.Stop()
	assert.True(t, errors.Is(p.Start(), ErrAlreadyStarted))
}

func TestStopWithoutStart(t *testing.T) {
	p := NewProcess(Config{})
	assert.True(t, errors.Is(p.Stop(), ErrNotStarted))
}

func TestStopAfterProcessExitedByItself(t *testing.T) {
	sh := requireCommand(t, "sh")
	p := NewProcess(Config{Path: sh, Args: []string{"-c", "exit 0"}})

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return !p.Running() }, time.Second*5, time.Millisecond*10)
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestStopKillsProcessThatIgnoresTermination(t *testing.T) {
	sh := requireCommand(t, "sh")
	p := NewProcess(Config{
		Path:        sh,
		Args:        []string{"-c", `trap "" TERM; while :; do :; done`},
		Stdout:      os.Stdout,
		StopTimeout: time.Millisecond * 200,
	})

	require.NoError(t, p.Start())
	pid := p.Pid()
	start := time.Now()
	require.NoError(t, p.Stop())
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(time.Millisecond*200))
	assert.False(t, processExists(pid))
}

func TestOutputIsForwarded(t *testing.T) {
	sh := requireCommand(t, "sh")
	var stdout, stderr bytes.Buffer
	p := NewProcess(Config{
		Path:   sh,
		Args:   []string{"-c", "echo listening; echo warning >&2"},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return !p.Running() }, time.Second*5, time.Millisecond*10)
	require.NoError(t, p.Stop())
	assert.Equal(t, "listening\n", stdout.String())
	assert.Equal(t, "warning\n", stderr.String())
}

func TestCanRestartAfterStop(t *testing.T) {
	sleep := requireCommand(t, "sleep")
	p := NewProcess(Config{Path: sleep, Args: []string{"60"}})

	require.NoError(t, p.Start())
	first := p.Pid()
	require.NoError(t, p.Stop())

	require.NoError(t, p.Start())
	defer p.Stop()
	assert.NotEqual(t, first, p.Pid())
	assert.True(t, p.Running())
}

func TestDefaultPath(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultPath(),
		filepath.Join(".asdf", "installs", "rust", "stable", "bin", "tauri-driver")))
}
