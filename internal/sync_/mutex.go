package sync_

import "sync"

// Mutexed is a value that can only be reached with its lock held.
type Mutexed[T any] struct {
	mu    sync.Mutex
	value T
}

func NewMutexed[T any](value T) *Mutexed[T] {
	return &Mutexed[T]{value: value}
}

// Locked runs f with the lock held, passing a pointer to the value. The pointer must not escape f.
func (m *Mutexed[T]) Locked(f func(*T) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(&m.value)
}

func (m *Mutexed[T]) Get() (value T) {
	_ = m.Locked(func(v *T) error {
		value = *v
		return nil
	})
	return value
}

// Swap replaces the value, returning the old one.
func (m *Mutexed[T]) Swap(value T) (old T) {
	_ = m.Locked(func(v *T) error {
		old, *v = *v, value
		return nil
	})
	return old
}

// RWMutexed is a Mutexed that allows concurrent readers.
type RWMutexed[T any] struct {
	mu    sync.RWMutex
	value T
}

func NewRWMutexed[T any](value T) *RWMutexed[T] {
	return &RWMutexed[T]{value: value}
}

func (m *RWMutexed[T]) Locked(f func(*T) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(&m.value)
}

// RLocked is Locked with only the read lock, so f must not modify the value.
func (m *RWMutexed[T]) RLocked(f func(*T) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return f(&m.value)
}

func (m *RWMutexed[T]) Get() (value T) {
	_ = m.RLocked(func(v *T) error {
		value = *v
		return nil
	})
	return value
}

func (m *RWMutexed[T]) Swap(value T) (old T) {
	_ = m.Locked(func(v *T) error {
		old, *v = *v, value
		return nil
	})
	return old
}
