package generic

// Set is an unordered collection of distinct items.
type Set[T any] interface {
	// Add returns false if item was already present.
	Add(item T) bool
	Clear()
	// Contains reports whether every one of items is present.
	Contains(items ...T) bool
	Count() int
	// Remove returns false if item was not present.
	Remove(item T) bool
	ToSlice() []T
}

type mapSet[T any] struct {
	items map[any]Void
}

func newMapSet[T any](items []T) *mapSet[T] {
	s := &mapSet[T]{items: make(map[any]Void, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func NewSet[T comparable](items ...T) Set[T] {
	return newMapSet(items)
}

// NewPolymorphicSet is a Set over an interface type, compared by dynamic value. Every item's dynamic type must be
// comparable (pointers, usually), otherwise Add panics.
func NewPolymorphicSet[T any](items ...T) Set[T] {
	return newMapSet(items)
}

func (s *mapSet[T]) Add(item T) bool {
	if _, found := s.items[item]; found {
		return false
	}
	s.items[item] = NewVoid()
	return true
}

func (s *mapSet[T]) Clear() {
	s.items = make(map[any]Void)
}

func (s *mapSet[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := s.items[item]; !found {
			return false
		}
	}
	return true
}

func (s *mapSet[T]) Count() int {
	return len(s.items)
}

func (s *mapSet[T]) Remove(item T) bool {
	if _, found := s.items[item]; !found {
		return false
	}
	delete(s.items, item)
	return true
}

func (s *mapSet[T]) ToSlice() []T {
	slice := make([]T, 0, len(s.items))
	for item := range s.items {
		slice = append(slice, item.(T))
	}
	return slice
}
