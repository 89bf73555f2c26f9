package handle

import (
	"sync"

	"github.com/wippyai/modkit/errors"
)

// ErrClosed is returned by Allocate after Close.
var ErrClosed = errors.New(errors.PhaseRegistry, errors.KindInvalidInput).
	Detail("registry closed").
	Build()

// Registry owns objects and hands out generational handles for them.
// Released slots are recycled with a bumped generation, so a stale handle
// never resolves to a newer object.
type Registry struct {
	entries   []entry
	freeList  []uint32
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value any
	gen   uint32
	kind  Kind
	valid bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make([]entry, 0, 16),
		freeList: make([]uint32, 0, 8),
	}
}

// Allocate stores value under kind and returns its handle.
func (r *Registry) Allocate(kind Kind, value any) (Handle, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}

	var slot uint32
	if n := len(r.freeList); n > 0 {
		slot = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		r.entries = append(r.entries, entry{})
		slot = uint32(len(r.entries) - 1)
	}

	e := &r.entries[slot]
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	e.kind = kind
	e.value = value
	e.valid = true
	h := makeHandle(e.gen, slot)
	r.mu.Unlock()

	r.notify(Event{Type: EventAllocated, Handle: h, Kind: kind, Value: value})
	return h, nil
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(h Handle) (*entry, error) {
	if h == 0 {
		return nil, errors.InvalidHandle(uint64(h), "zero handle")
	}
	slot := h.Slot()
	if int(slot) >= len(r.entries) {
		return nil, errors.InvalidHandle(uint64(h), "unknown slot")
	}
	e := &r.entries[slot]
	if !e.valid || e.gen != h.Generation() {
		return nil, errors.InvalidHandle(uint64(h), "released")
	}
	return e, nil
}

// Get retrieves the object behind a handle.
func (r *Registry) Get(h Handle) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// GetKind retrieves the object only if it was allocated with kind.
func (r *Registry) GetKind(h Handle, kind Kind) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if kind != KindAny && e.kind != kind {
		return nil, errors.InvalidHandle(uint64(h), "is a "+e.kind.String()+", not a "+kind.String())
	}
	return e.value, nil
}

// Lookup retrieves the object behind h as a T allocated with kind.
func Lookup[T any](r *Registry, h Handle, kind Kind) (T, error) {
	var zero T
	v, err := r.GetKind(h, kind)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.InvalidHandle(uint64(h), "unexpected value type")
	}
	return t, nil
}

// Release invalidates a handle and returns the object it referenced.
// Values implementing Dropper are dropped.
func (r *Registry) Release(h Handle) (any, error) {
	r.mu.Lock()
	e, err := r.lookup(h)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	value, kind := e.value, e.kind
	e.value = nil
	e.valid = false
	r.freeList = append(r.freeList, h.Slot())
	r.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	r.notify(Event{Type: EventReleased, Handle: h, Kind: kind, Value: value})
	return value, nil
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live handles.
func (r *Registry) Each(fn func(Handle, Kind, any) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, e := range r.entries {
		if e.valid {
			if !fn(makeHandle(e.gen, uint32(i)), e.kind, e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer. o must be comparable, so an ObserverFunc
// cannot be unsubscribed.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close releases every live handle and stops accepting allocations.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// Collect handles first to avoid holding the lock during Release
	var handles []Handle
	r.Each(func(h Handle, _ Kind, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_, _ = r.Release(h)
	}
	return nil
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnHandleEvent(e)
	}
}
