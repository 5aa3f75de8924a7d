package engine

import "testing"

func TestEventInvokeOrder(t *testing.T) {
	var e EventWithArg[int]
	var got []int

	e.AddListener(func(v int) { got = append(got, v) })
	e.AddListener(func(v int) { got = append(got, v*10) })
	e.Invoke(2)

	if len(got) != 2 || got[0] != 2 || got[1] != 20 {
		t.Errorf("Unexpected invocation order: %v", got)
	}
}

func TestEventRemoveListener(t *testing.T) {
	var e EventWithArg[int]
	calls := 0

	id := e.AddListener(func(v int) { calls += v })
	e.AddListener(func(v int) { calls += 10 * v })
	e.RemoveListener(id)
	e.Invoke(1)

	if calls != 10 {
		t.Errorf("Expected only the second listener to fire, got %d", calls)
	}
	if e.GetListenerCount() != 1 {
		t.Errorf("Expected 1 listener, got %d", e.GetListenerCount())
	}
}

func TestEventNilListenerIgnored(t *testing.T) {
	var e EventWithArg[string]

	if id := e.AddListener(nil); id != 0 {
		t.Errorf("nil listener should not get an id, got %d", id)
	}
	if e.GetListenerCount() != 0 {
		t.Error("nil listener should not be registered")
	}
	e.Invoke("ok")
}

func TestEventListenerAddedDuringInvoke(t *testing.T) {
	var e EventWithArg[string]
	late := 0

	e.AddListener(func(string) {
		e.AddListener(func(string) { late++ })
	})
	e.Invoke("first")
	if late != 0 {
		t.Error("Listener added during Invoke should not fire in the same call")
	}

	e.RemoveAllListeners()
	if e.GetListenerCount() != 0 {
		t.Error("RemoveAllListeners should clear every listener")
	}
}
