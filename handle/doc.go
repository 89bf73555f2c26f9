// Package handle provides the registry that owns long-lived engine objects.
//
// Callers at a scripting or FFI boundary hold a small integer instead of the
// object graph of a resolver, transpiler or loader. The registry is the sole
// owner of each object until the handle is released.
//
// # Handles
//
// A Handle packs a slot index and a generation:
//
//	generation<<32 | slot
//
// Releasing a handle frees its slot and the next allocation into that slot
// bumps the generation, so a stale handle fails with an invalid_handle error
// instead of reaching the new occupant. Handle 0 is never valid.
//
// # Usage
//
//	reg := handle.NewRegistry()
//
//	h, err := reg.Allocate(handle.KindResolver, r)
//
//	// Kind-checked, typed retrieval
//	r, err := handle.Lookup[*resolver.Resolver](reg, h, handle.KindResolver)
//
//	// Invalidate
//	_, err = reg.Release(h)
//
// # Observers
//
// Observers are notified after the registry lock is dropped:
//
//	reg.Subscribe(handle.ObserverFunc(func(e handle.Event) {
//	    if e.Type == handle.EventReleased {
//	        log.Printf("%s %s released", e.Kind, e.Handle)
//	    }
//	}))
//
// Values implementing Dropper are dropped on Release and on Close.
package handle
