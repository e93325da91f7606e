package pubsub

import (
	"sync"

	"github.com/alanbriolat/media-fetcher/internal/sync_"
)

type Sender[T any] interface {
	// Send delivers msg, blocking while the buffer is full. Returns false if the channel is (or becomes) closed.
	Send(msg T) bool
}

type Receiver[T any] interface {
	Receive() <-chan T
}

type Closer interface {
	Close()
	// Closed returns a channel that is closed once Close has been called.
	Closed() <-chan struct{}
}

type SenderCloser[T any] interface {
	Sender[T]
	Closer
}

type ReceiverCloser[T any] interface {
	Receiver[T]
	Closer
}

type Channel[T any] interface {
	Sender[T]
	Receiver[T]
	Closer
}

// channel is a `chan` that any side may close, any number of times, without racing a concurrent Send.
type channel[T any] struct {
	ch       chan T
	stopping sync_.Event
	// Held for reading by each in-flight Send, and for writing by Close while it drains them
	senders sync.RWMutex
	closed  bool
}

func NewChannel[T any](bufSize int) Channel[T] {
	return newChannel[T](bufSize)
}

func newChannel[T any](bufSize int) *channel[T] {
	return &channel[T]{ch: make(chan T, bufSize)}
}

func (c *channel[T]) Receive() <-chan T {
	return c.ch
}

func (c *channel[T]) Send(msg T) bool {
	c.senders.RLock()
	defer c.senders.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.ch <- msg:
		return true
	case <-c.stopping.Wait():
		return false
	}
}

func (c *channel[T]) Close() {
	// Blocked senders hold the read lock, so release them before taking the write lock
	if !c.stopping.Set() {
		return
	}
	c.senders.Lock()
	defer c.senders.Unlock()
	c.closed = true
	close(c.ch)
}

func (c *channel[T]) Closed() <-chan struct{} {
	return c.stopping.Wait()
}
