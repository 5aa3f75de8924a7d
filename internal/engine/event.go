package engine

// ListenerID identifies a subscription so it can be removed later.
type ListenerID uint64

type listener[T any] struct {
	id ListenerID
	fn func(T)
}

// EventWithArg is a Unity-style multi-cast event carrying one argument.
type EventWithArg[T any] struct {
	listeners []listener[T]
	lastID    ListenerID
}

func (e *EventWithArg[T]) AddListener(callback func(T)) ListenerID {
	if callback == nil {
		return 0
	}
	e.lastID++
	e.listeners = append(e.listeners, listener[T]{id: e.lastID, fn: callback})
	return e.lastID
}

func (e *EventWithArg[T]) RemoveListener(id ListenerID) {
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

func (e *EventWithArg[T]) RemoveAllListeners() {
	e.listeners = nil
}

// Invoke calls listeners in subscription order. Listeners added during
// Invoke fire from the next call on.
func (e *EventWithArg[T]) Invoke(arg T) {
	snapshot := e.listeners
	for _, l := range snapshot {
		l.fn(arg)
	}
}

func (e *EventWithArg[T]) GetListenerCount() int {
	return len(e.listeners)
}
