package handle

import "fmt"

// Handle is an opaque reference to an object owned by a Registry.
// The upper 32 bits carry the slot generation, the lower 32 bits the slot index.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(gen, slot uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

// Slot returns the slot index encoded in the handle.
func (h Handle) Slot() uint32 { return uint32(h) }

// Generation returns the slot generation encoded in the handle.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.Slot(), h.Generation())
}

// Kind identifies the type of object stored behind a handle.
type Kind uint8

const (
	KindAny Kind = iota
	KindResolver
	KindTranspiler
	KindLoader
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindResolver:
		return "resolver"
	case KindTranspiler:
		return "transpiler"
	case KindLoader:
		return "loader"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// EventType enumerates handle lifecycle notifications.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventReleased:
		return "released"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnHandleEvent calls f(e).
func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Dropper is optionally implemented by values that need cleanup on release.
type Dropper interface {
	Drop()
}
