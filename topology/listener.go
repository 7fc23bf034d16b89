package topology

import "github.com/coredb/sdam/description"

// ChangeEvent carries the previous and newly published ClusterDescription
// to a ChangeListener.
type ChangeEvent struct {
	Previous description.Cluster
	New      description.Cluster
}

// ChangeListener receives one OnChange call per published description
// change, in registration order (spec.md §4 step 11, §8 invariant 6).
// OnChange must not mutate the cluster it was registered on and must
// return promptly; the critical section is held for the duration of the
// call. Calling back into GetServer, Close, or anything that would re-run
// the notification algorithm is a contract violation (spec.md §5, §9) and
// will deadlock rather than being detected and rejected.
type ChangeListener interface {
	OnChange(event ChangeEvent)
}

// ChangeListenerFunc adapts a plain function to ChangeListener. Func values
// are not comparable, so a ChangeListenerFunc cannot be looked up by `==`
// for removal (see ListenerHandle); it can only ever be registered, never
// independently re-identified.
type ChangeListenerFunc func(event ChangeEvent)

// OnChange implements ChangeListener.
func (f ChangeListenerFunc) OnChange(event ChangeEvent) { f(event) }

// ListenerHandle identifies a previously registered ChangeListener for
// removal. It is opaque and comparable, returned by AddChangeListener; this
// sidesteps spec.md §9's "listeners are identified by pointer/handle
// identity for removal" without requiring every ChangeListener
// implementation (including func-typed ones like ChangeListenerFunc) to be
// comparable with `==` itself.
type ListenerHandle uint64

// listenerRegistry is a simple append-only-until-removed sequence of
// listeners, each keyed by the ListenerHandle returned when it was added.
type listenerRegistry struct {
	nextID    ListenerHandle
	listeners []registeredListener
}

type registeredListener struct {
	handle   ListenerHandle
	listener ChangeListener
}

func (r *listenerRegistry) add(l ChangeListener) ListenerHandle {
	if l == nil {
		return 0
	}
	r.nextID++
	h := r.nextID
	r.listeners = append(r.listeners, registeredListener{handle: h, listener: l})
	return h
}

func (r *listenerRegistry) remove(h ListenerHandle) {
	for i, existing := range r.listeners {
		if existing.handle == h {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// fire invokes every listener in registration order. A listener that
// panics is recovered and swallowed (spec.md §5: "listener exceptions are
// swallowed and logged"); remaining listeners still run.
func (r *listenerRegistry) fire(event ChangeEvent, onPanic func(recovered interface{})) {
	for _, rl := range r.listeners {
		invokeListener(rl.listener, event, onPanic)
	}
}

func invokeListener(l ChangeListener, event ChangeEvent, onPanic func(recovered interface{})) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(r)
		}
	}()
	l.OnChange(event)
}
