package pubsub

// NewFilteredSender wraps s so that only messages passing filter reach it, e.g. to give a subscriber the events of a
// single download. Closing either one closes both.
func NewFilteredSender[T any](s SenderCloser[T], filter func(T) bool) SenderCloser[T] {
	return &filteredSender[T]{SenderCloser: s, filter: filter}
}

type filteredSender[T any] struct {
	SenderCloser[T]
	filter func(T) bool
}

// Send reports a filtered-out message as sent, because false would mean the subscriber has gone.
func (s *filteredSender[T]) Send(msg T) bool {
	select {
	case <-s.Closed():
		return false
	default:
	}
	if s.filter != nil && !s.filter(msg) {
		return true
	}
	return s.SenderCloser.Send(msg)
}
