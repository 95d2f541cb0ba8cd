package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Command runs the generator and streams its stdout.
type Command struct {
	Bin        string
	Args       []string
	Dir        string
	Env        []string
	Timeout    time.Duration
	StreamJSON bool
	// LogPath, when set, receives the response text and the generator's stderr.
	LogPath string
	OnTool  func(name, summary string)

	result StreamResult
}

func (c *Command) Name() string {
	return "generate:" + c.Bin
}

// Result returns the final stream-json result event, if any.
func (c *Command) Result() StreamResult {
	return c.result
}

// Stream starts the generator in its own process group so cancellation
// reaches any children, and emits its output as it arrives.
func (c *Command) Stream(ctx context.Context, emit func(string)) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	var logFile io.Writer
	if c.LogPath != "" {
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logFile = f
	}

	var stderr tailBuffer
	if logFile != nil {
		cmd.Stderr = io.MultiWriter(logFile, &stderr)
	} else {
		cmd.Stderr = &stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", c.Bin, err)
	}

	var streamErr error
	if c.StreamJSON {
		var res *StreamResult
		res, streamErr = processStream(ctx, stdout, emit, logFile, c.OnTool)
		if res != nil {
			c.result = *res
		}
	} else {
		streamErr = copyChunks(ctx, stdout, emit, logFile)
	}
	// Drain whatever is left so Wait does not block on a full pipe.
	io.Copy(io.Discard, stdout)

	code, waitErr := exitCode(cmd.Wait())
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", c.Bin, c.Timeout)
		}
		return ctx.Err()
	}
	if streamErr != nil {
		return streamErr
	}
	if waitErr != nil {
		return waitErr
	}
	if code != 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s exited with code %d", c.Bin, code)
		}
		return fmt.Errorf("%s exited with code %d: %s", c.Bin, code, msg)
	}
	if c.result.IsError {
		return fmt.Errorf("%s reported an error result", c.Bin)
	}
	return nil
}

func copyChunks(ctx context.Context, r io.Reader, emit func(string), logFile io.Writer) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			if logFile != nil {
				io.WriteString(logFile, chunk)
			}
			emit(chunk)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// tailBuffer keeps the last 4KB written to it.
type tailBuffer struct {
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	const max = 4096
	t.buf = append(t.buf, p...)
	if len(t.buf) > max {
		t.buf = t.buf[len(t.buf)-max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

// Preflight checks that the generator binary is on PATH.
func Preflight(bin string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("required binary not found in PATH: %s", bin)
	}
	return nil
}

// exitCode extracts an exit code from a command error.
// Returns (code, nil) for ExitError, (0, err) for other errors, (0, nil) for nil.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
