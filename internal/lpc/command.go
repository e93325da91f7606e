// Package lpc stands for "Local Procedure Call": typed requests to a long-running goroutine, answered over channels.
package lpc

import (
	"errors"

	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/internal/sync_"
)

var (
	ErrClosed     = errors.New("command response already sent")
	ErrNoResponse = errors.New("no response")
)

// Command carries one argument to the goroutine serving it, and exactly one response (or error) back. It must be
// created with New.
type Command[Arg any, Response any] struct {
	initialized bool
	arg         Arg
	response    generic.Result[Response]
	done        sync_.Event
}

func (*Command[Arg, Response]) New(arg Arg) *Command[Arg, Response] {
	return &Command[Arg, Response]{
		initialized: true,
		arg:         arg,
		// What Wait gets if the command is closed without a response
		response: generic.Err[Response](ErrNoResponse),
	}
}

func (c *Command[Arg, Response]) mustBeInitialized(method string) {
	if c == nil || !c.initialized {
		panic("lpc: " + method + "() called on a Command not created by New()")
	}
}

func (c *Command[Arg, Response]) Arg() Arg {
	c.mustBeInitialized("Arg")
	return c.arg
}

func (c *Command[Arg, Response]) Respond(response Response) error {
	return c.respond("Respond", generic.Ok(response))
}

func (c *Command[Arg, Response]) RespondError(err error) error {
	return c.respond("RespondError", generic.Err[Response](err))
}

func (c *Command[Arg, Response]) respond(method string, result generic.Result[Response]) error {
	c.mustBeInitialized(method)
	if c.done.IsSet() {
		return ErrClosed
	}
	c.response = result
	c.done.Set()
	return nil
}

// Wait blocks until the command is answered or closed.
func (c *Command[Arg, Response]) Wait() (Response, error) {
	c.mustBeInitialized("Wait")
	<-c.done.Wait()
	return c.response.Parts()
}

// Close ends the command without a response, unless it already has one.
func (c *Command[Arg, Response]) Close() {
	c.mustBeInitialized("Close")
	c.done.Set()
}

// Call sends a new command to the goroutine reading commands and waits for the answer. If stopped is closed before
// the command is taken, it gives up with errStopped.
func Call[Arg any, Response any](commands chan *Command[Arg, Response], stopped <-chan struct{}, arg Arg, errStopped error) (Response, error) {
	cmd := (*Command[Arg, Response]).New(nil, arg)
	select {
	case commands <- cmd:
		return cmd.Wait()
	case <-stopped:
		return generic.Err[Response](errStopped).Parts()
	}
}
