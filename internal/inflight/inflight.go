// Package inflight keeps the table of in-flight calls shared between
// identical concurrent requests. A key owns a slot from the moment its first
// caller joins until the owner settles it; every later caller for the key is
// queued on that slot and notified, in join order, with the owner's outcome.
package inflight

import "sync"

// Callback receives the outcome of a settled slot. Exactly one of val or err
// is meaningful.
type Callback[T any] func(val T, err error)

// PanicHandler is told about a callback that panicked during fan-out.
type PanicHandler func(key string, recovered interface{})

// Table maps keys to pending slots. The zero value is not usable; call New.
type Table[T any] struct {
	mu      sync.Mutex
	slots   map[string][]Callback[T]
	onPanic PanicHandler
}

// New creates an empty Table. onPanic may be nil.
func New[T any](onPanic PanicHandler) *Table[T] {
	return &Table[T]{
		slots:   make(map[string][]Callback[T]),
		onPanic: onPanic,
	}
}

// Join returns owner=true when no slot existed for key: the caller must perform
// the work and later call Resolve or Reject. Otherwise the caller is queued and
// the returned Future completes when the owner settles the slot.
func (t *Table[T]) Join(key string) (*Future[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if waiters, ok := t.slots[key]; ok {
		f := newFuture[T]()
		t.slots[key] = append(waiters, f.complete)
		return f, false
	}

	t.slots[key] = []Callback[T]{}
	return nil, true
}

// Attach queues cb on an existing slot. It reports false, and does nothing,
// when no slot exists for key.
func (t *Table[T]) Attach(key string, cb Callback[T]) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	waiters, ok := t.slots[key]
	if !ok {
		return false
	}
	t.slots[key] = append(waiters, cb)
	return true
}

// Resolve settles key successfully and returns the number of waiters notified.
func (t *Table[T]) Resolve(key string, val T) int {
	return t.settle(key, val, nil)
}

// Reject settles key with err and returns the number of waiters notified.
func (t *Table[T]) Reject(key string, err error) int {
	var zero T
	return t.settle(key, zero, err)
}

// settle removes the slot before notifying anyone so that a caller arriving
// during fan-out starts a fresh slot instead of joining a finished one.
func (t *Table[T]) settle(key string, val T, err error) int {
	t.mu.Lock()
	waiters, ok := t.slots[key]
	delete(t.slots, key)
	t.mu.Unlock()

	if !ok {
		return 0
	}

	for _, cb := range waiters {
		t.invoke(key, cb, val, err)
	}
	return len(waiters)
}

func (t *Table[T]) invoke(key string, cb Callback[T], val T, err error) {
	defer func() {
		if r := recover(); r != nil && t.onPanic != nil {
			t.onPanic(key, r)
		}
	}()
	cb(val, err)
}

// Len returns the number of open slots.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Waiters returns how many callers are queued on key and whether a slot exists.
func (t *Table[T]) Waiters(key string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	waiters, ok := t.slots[key]
	return len(waiters), ok
}

// Future is the one-shot result handed to a queued caller.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done is closed once the slot the Future waits on has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the owner settles the slot.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}
