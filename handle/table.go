package handle

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Insert after Close.
var ErrClosed = errors.New("handle table closed")

// Handle is an opaque reference into a Table. Zero is invalid.
type Handle uint32

// Table is a concurrent-safe handle table.
type Table[T any] struct {
	entries  []slot[T]
	freeList []Handle
	mu       sync.RWMutex
	live     int
	closed   bool
}

type slot[T any] struct {
	value T
	valid bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries:  make([]slot[T], 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v T) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	t.live++

	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = slot[T]{value: v, valid: true}
		return h, nil
	}

	t.entries = append(t.entries, slot[T]{value: v, valid: true})
	return Handle(len(t.entries)), nil
}

// Get returns the value stored under h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h - 1)
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return zero, false
	}
	return t.entries[idx].value, true
}

// Remove releases h and returns the value it held.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := int(h - 1)
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return zero, false
	}

	v := t.entries[idx].value
	t.entries[idx] = slot[T]{}
	t.freeList = append(t.freeList, h)
	t.live--
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Close invalidates every handle. Further inserts fail with ErrClosed.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	t.freeList = nil
	t.live = 0
	return nil
}
