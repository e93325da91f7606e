// Package processtest provides a scripted process.Runner for tests that must not launch real downloaders.
package processtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alanbriolat/media-fetcher/internal/process"
)

var (
	ErrNoScript = errors.New("no script left for invocation")
)

// Step is one line of scripted output. If Before is set it runs just before the line is delivered, e.g. to create the
// file that the line announces.
type Step struct {
	Line   string
	Before func()
}

// Script describes how one invocation behaves.
type Script struct {
	Steps []Step
	// Exit code reported by Wait.
	ExitCode int
	// If set, Start fails with this error.
	StartErr error
	// Hold the process open after the steps until Terminate is called, then exit with TerminatedCode.
	BlockUntilTerminated bool
	TerminatedCode       int
	// Called with the arguments at start, e.g. to create files named by them.
	OnStart func(args []string)

	// For Output.
	Stdout string
	Stderr string
}

// Lines is a shortcut for a Script that just prints lines and exits with code.
func Lines(code int, lines ...string) Script {
	steps := make([]Step, len(lines))
	for i, line := range lines {
		steps[i] = Step{Line: line}
	}
	return Script{Steps: steps, ExitCode: code}
}

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// Runner plays back scripts in order, one per invocation of Start or Output.
type Runner struct {
	mu      sync.Mutex
	scripts []Script
	calls   []Call
	// Started receives each fake process as it starts, if non-nil.
	Started chan *Process
}

var _ process.Runner = (*Runner)(nil)

func NewRunner(scripts ...Script) *Runner {
	return &Runner{scripts: scripts}
}

func (r *Runner) next(name string, args []string) (Script, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	if len(r.scripts) == 0 {
		return Script{}, fmt.Errorf("%w: %s %v", ErrNoScript, name, args)
	}
	s := r.scripts[0]
	r.scripts = r.scripts[1:]
	return s, nil
}

// Calls returns a copy of every invocation so far.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Runner) Start(ctx context.Context, name string, args ...string) (process.Process, error) {
	s, err := r.next(name, args)
	if err != nil {
		return nil, err
	}
	if s.StartErr != nil {
		return nil, s.StartErr
	}
	if s.OnStart != nil {
		s.OnStart(args)
	}
	p := &Process{
		script:     s,
		lines:      make(chan string),
		terminated: make(chan struct{}),
		done:       make(chan struct{}),
	}
	go p.run()
	if r.Started != nil {
		r.Started <- p
	}
	return p, nil
}

func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	s, err := r.next(name, args)
	if err != nil {
		return nil, nil, -1, err
	}
	if s.StartErr != nil {
		return nil, nil, -1, s.StartErr
	}
	if s.OnStart != nil {
		s.OnStart(args)
	}
	return []byte(s.Stdout), []byte(s.Stderr), s.ExitCode, nil
}

// Process is a fake process.Process.
type Process struct {
	script        Script
	lines         chan string
	terminateOnce sync.Once
	terminated    chan struct{}
	done          chan struct{}
	code          int
}

func (p *Process) run() {
	defer close(p.done)
	defer close(p.lines)
	p.code = p.script.ExitCode
	for _, step := range p.script.Steps {
		if step.Before != nil {
			step.Before()
		}
		select {
		case p.lines <- step.Line:
		case <-p.terminated:
			p.code = p.script.TerminatedCode
			return
		}
	}
	if p.script.BlockUntilTerminated {
		<-p.terminated
		p.code = p.script.TerminatedCode
	}
}

func (p *Process) Lines() <-chan string {
	return p.lines
}

func (p *Process) Terminate() error {
	p.terminateOnce.Do(func() { close(p.terminated) })
	return nil
}

// Terminated is closed once Terminate has been called.
func (p *Process) Terminated() <-chan struct{} {
	return p.terminated
}

func (p *Process) Wait() (int, error) {
	<-p.done
	return p.code, nil
}
