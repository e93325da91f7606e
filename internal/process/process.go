// Package process runs the external downloaders as child processes, exposing their combined output as lines.
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/alessio/shellescape"
	"go.uber.org/zap"
)

const maxLineLength = 1024 * 1024

var (
	ErrNotStarted = errors.New("process not started")
)

// A Process is a running child whose stdout and stderr are merged into one ordered stream of lines.
type Process interface {
	// Lines delivers output lines in the order they were produced; closed once output ends. Must be drained, or the
	// child will eventually block writing its output.
	Lines() <-chan string
	// Terminate asks the process to exit. It does not wait, and it does not escalate.
	Terminate() error
	// Wait blocks until the process has exited and all output has been delivered, returning the exit code.
	Wait() (int, error)
}

// Runner starts child processes.
type Runner interface {
	// Start launches a long-running process whose output will be consumed line by line.
	Start(ctx context.Context, name string, args ...string) (Process, error)
	// Output runs a process to completion, capturing stdout and stderr separately.
	Output(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, exitCode int, err error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	log := zap.S().Named("process")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Not exec.CommandContext: termination is cooperative, via Process.Terminate
	cmd := exec.Command(name, args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	log.Debugf("starting: %s", shellescape.QuoteCommand(append([]string{name}, args...)))
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	p := &execProcess{
		cmd:    cmd,
		lines:  make(chan string),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go func() {
		defer close(p.exited)
		p.waitErr = cmd.Wait()
		_ = pw.Close()
	}()
	go func() {
		defer close(p.done)
		defer close(p.lines)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), maxLineLength)
		scanner.Split(ScanLines)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				p.lines <- line
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warnf("reading output of %s: %v", name, err)
			// Drain so that the process is never blocked writing to a full pipe
			_, _ = io.Copy(io.Discard, pr)
		}
	}()
	return p, nil
}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	zap.S().Named("process").Debugf("running: %s", shellescape.QuoteCommand(append([]string{name}, args...)))
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code, err := exitCode(err)
	return stdout.Bytes(), stderr.Bytes(), code, err
}

type execProcess struct {
	cmd     *exec.Cmd
	lines   chan string
	done    chan struct{}
	exited  chan struct{}
	waitErr error
}

func (p *execProcess) Lines() <-chan string {
	return p.lines
}

func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return ErrNotStarted
	}
	if runtime.GOOS == "windows" {
		// No interrupt signal to deliver on Windows
		return p.cmd.Process.Kill()
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) Wait() (int, error) {
	<-p.done
	<-p.exited
	return exitCode(p.waitErr)
}

// exitCode separates "ran and exited non-zero" (a code, nil error) from "could not run at all" (an error).
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// ScanLines is a bufio.SplitFunc that splits on "\n", "\r\n" or a bare "\r", so that progress bars which redraw with
// carriage returns still produce one line per redraw. An empty line is an empty (non-nil) token, because a nil token
// ends the scan once EOF has been seen.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	end := i + 1
	if data[i] == '\r' {
		if i+1 < len(data) && data[i+1] == '\n' {
			end++
		} else if i+1 == len(data) && !atEOF {
			// Might be the first half of "\r\n"; wait for more
			return 0, nil, nil
		}
	}
	return end, data[:i], nil
}
