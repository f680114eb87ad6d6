package application

import "sync"

// Observable holds a value and pushes every change to its watchers.
//
// Watch channels have a buffer of one and keep only the latest value, so a
// slow reader sees the newest state rather than blocking the writer.
type Observable[T comparable] struct {
	value    T
	watchers map[int]chan T
	nextID   int

	mu sync.RWMutex
}

func NewObservable[T comparable](initial T) *Observable[T] {
	return &Observable[T]{value: initial, watchers: make(map[int]chan T)}
}

func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores v and reports whether it differed from the previous value.
// Watchers are only notified on change.
func (o *Observable[T]) Set(v T) bool {
	return o.Update(func(T) T { return v })
}

// Update applies fn to the current value under the write lock.
func (o *Observable[T]) Update(fn func(T) T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := fn(o.value)
	if next == o.value {
		return false
	}
	o.value = next
	for _, ch := range o.watchers {
		offer(ch, next)
	}
	return true
}

// Watch returns a channel primed with the current value and a cancel func
// that closes it.
func (o *Observable[T]) Watch() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	ch := make(chan T, 1)
	ch <- o.value
	o.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.watchers, id)
			close(ch)
			o.mu.Unlock()
		})
	}
}

func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
