package extensions

import "sync"

// EventHandler handles an event raised by sender.
type EventHandler[T any] func(sender any, args T)

type subscription[T any] struct {
	handler EventHandler[T]
}

// Event is a multicast event. The zero value is ready to use and safe for
// concurrent use.
type Event[T any] struct {
	mu   sync.RWMutex
	subs []*subscription[T]
}

// Subscribe adds handler to the event and returns a function that removes it
// again. Calling the returned function more than once is a no-op.
func (e *Event[T]) Subscribe(handler EventHandler[T]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	sub := &subscription[T]{handler: handler}
	e.mu.Lock()
	e.subs = append(e.subs, sub)
	e.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { e.remove(sub) })
	}
}

func (e *Event[T]) remove(sub *subscription[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Fire invokes every subscribed handler in subscription order. Handlers may
// subscribe or unsubscribe while the event fires; those changes apply to the
// next call.
func (e *Event[T]) Fire(sender any, args T) {
	if e == nil {
		return
	}
	e.mu.RLock()
	snapshot := make([]*subscription[T], len(e.subs))
	copy(snapshot, e.subs)
	e.mu.RUnlock()
	for _, s := range snapshot {
		s.handler(sender, args)
	}
}

// Len returns the number of subscribed handlers.
func (e *Event[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
