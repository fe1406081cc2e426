// Package builder makes sure a release build of the application under test exists.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/tauri-postgres/tauri-e2e/framework"
)

const (
	DefaultCommand    = "cargo"
	DefaultBinaryName = "tauri-app"
	DefaultProjectDir = "src-tauri"

	// DefaultTimeout bounds a build that has to compile from scratch.
	DefaultTimeout = time.Minute
)

var (
	ErrBinaryNotFound = errors.New("application binary not found")
	ErrNotExecutable  = errors.New("application binary is not executable")
)

// DefaultArgs are the arguments passed to DefaultCommand.
func DefaultArgs() []string {
	return []string{"build", "--release"}
}

// Builder runs the project's build command.
type Builder struct {
	// Dir is the directory the command runs in.
	Dir     string
	Command string
	Args    []string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  framework.Logger
}

// Build runs the build command and blocks until it exits or ctx is done.
func (b Builder) Build(ctx context.Context) error {
	command, args := b.Command, b.Args
	if command == "" {
		command, args = DefaultCommand, DefaultArgs()
	}
	logger := b.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = b.Dir
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	commandLine := quoteCommand(command, args)
	logger.Printf("Running %s in %s", commandLine, displayDir(b.Dir))
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s did not finish: %w", commandLine, ctxErr)
		}
		return fmt.Errorf("%s failed: %w", commandLine, err)
	}
	logger.Printf("Build finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// ApplicationPath is where a release build of binaryName ends up for the project in projectDir.
func ApplicationPath(projectDir, binaryName string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(binaryName, ".exe") {
		binaryName += ".exe"
	}
	return filepath.Join(projectDir, "target", "release", binaryName)
}

// ValidateExecutable checks that path is a regular file the current user could run.
func ValidateExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBinaryNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%w: %s has mode %s", ErrNotExecutable, path, info.Mode().Perm())
	}
	return nil
}

func quoteCommand(command string, args []string) string {
	parts := []string{shellescape.Quote(command)}
	for _, a := range args {
		parts = append(parts, shellescape.Quote(a))
	}
	return strings.Join(parts, " ")
}

func displayDir(dir string) string {
	if dir == "" {
		return "current directory"
	}
	return dir
}
