package physics

import "fmt"

// Handle is a stable, generational reference to a body owned by a World.
// The zero Handle never refers to a body.
type Handle struct {
	Index uint32
	Gen   uint32
}

func (h Handle) IsZero() bool {
	return h.Gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "body(nil)"
	}
	return fmt.Sprintf("body(%d:%d)", h.Index, h.Gen)
}

type slot struct {
	body *Body
	gen  uint32
}

// arena stores bodies in slots; a removed slot bumps its generation so stale
// handles stop resolving.
type arena struct {
	slots []slot
	free  []uint32
	count int
}

func (a *arena) insert(b *Body) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.body = b
	a.count++
	return Handle{Index: idx, Gen: s.gen}
}

func (a *arena) get(h Handle) *Body {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.Index]
	if s.gen != h.Gen {
		return nil
	}
	return s.body
}

func (a *arena) remove(h Handle) *Body {
	b := a.get(h)
	if b == nil {
		return nil
	}
	a.slots[h.Index].body = nil
	a.free = append(a.free, h.Index)
	a.count--
	return b
}

// each visits live bodies in slot order.
func (a *arena) each(fn func(*Body)) {
	for i := range a.slots {
		if b := a.slots[i].body; b != nil {
			fn(b)
		}
	}
}
