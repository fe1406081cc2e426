// Package driver manages the tauri-driver process, which translates WebDriver requests from the
// harness into native automation of the application's webview.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/tauri-postgres/tauri-e2e/framework"
)

const defaultStopTimeout = time.Second * 5

var (
	ErrDriverNotFound = errors.New("tauri-driver binary not found")
	ErrAlreadyStarted = errors.New("tauri-driver process is already running")
	ErrNotStarted     = errors.New("tauri-driver process was never started")
)

// DefaultPath is where tauri-driver lands when installed with "cargo install tauri-driver" under
// an asdf-managed Rust toolchain.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ".asdf", "installs", "rust", "stable", "bin", "tauri-driver")
}

type Config struct {
	// Path is the tauri-driver executable. Defaults to DefaultPath().
	Path string
	Args []string

	// Stdout and Stderr receive the process's output. They default to the harness's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// StopTimeout is how long Stop waits after asking the process to terminate before killing it.
	StopTimeout time.Duration

	Logger framework.Logger
}

// Process owns at most one running tauri-driver process at a time.
type Process struct {
	config  Config
	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
	lock    sync.Mutex
}

func NewProcess(config Config) *Process {
	if config.Path == "" {
		config.Path = DefaultPath()
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = defaultStopTimeout
	}
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	return &Process{config: config}
}

// Start launches the process in the background and returns without waiting for it to be ready to
// accept connections.
func (p *Process) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.cmd != nil && !p.hasExited() {
		return ErrAlreadyStarted
	}
	if _, err := os.Stat(p.config.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrDriverNotFound, p.config.Path)
		}
		return err
	}

	cmd := exec.Command(p.config.Path, p.config.Args...)
	cmd.Stdout = p.config.Stdout
	cmd.Stderr = p.config.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start %s: %w", p.config.Path, err)
	}
	p.config.Logger.Printf("Started %s (pid %d)", p.config.Path, cmd.Process.Pid)

	exited := make(chan struct{})
	p.cmd = cmd
	p.exited = exited
	p.waitErr = nil
	go func() {
		err := cmd.Wait()
		p.lock.Lock()
		p.waitErr = err
		p.lock.Unlock()
		close(exited)
	}()
	return nil
}

// Stop terminates the process and waits for it to exit. Stopping a process that has already
// exited is not an error.
func (p *Process) Stop() error {
	p.lock.Lock()
	cmd, exited := p.cmd, p.exited
	p.lock.Unlock()

	if cmd == nil {
		return ErrNotStarted
	}
	select {
	case <-exited:
		p.config.Logger.Printf("tauri-driver (pid %d) had already exited: %v", cmd.Process.Pid, p.exitError())
		return nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Signals other than Kill are not supported on Windows.
		p.config.Logger.Printf("Could not send SIGTERM to pid %d (%s), killing it", cmd.Process.Pid, err)
		return p.kill(cmd, exited)
	}

	deadline := time.NewTimer(p.config.StopTimeout)
	defer deadline.Stop()
	select {
	case <-exited:
		p.config.Logger.Printf("tauri-driver (pid %d) stopped", cmd.Process.Pid)
		return nil
	case <-deadline.C:
		p.config.Logger.Printf("tauri-driver (pid %d) did not exit within %s, killing it", cmd.Process.Pid, p.config.StopTimeout)
		return p.kill(cmd, exited)
	}
}

func (p *Process) kill(cmd *exec.Cmd, exited <-chan struct{}) error {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("could not kill pid %d: %w", cmd.Process.Pid, err)
	}
	<-exited
	return nil
}

func (p *Process) exitError() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.waitErr
}

// hasExited must be called with the lock held.
func (p *Process) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Running reports whether a started process has not yet exited.
func (p *Process) Running() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.cmd != nil && !p.hasExited()
}

// Pid is the operating system process ID of the most recently started process, or 0.
func (p *Process) Pid() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
