package accrual

// Arena stores values in index-addressed slots. Released slots become tombstones
// and are handed out again lowest index first.
type Arena[T any] struct {
	slots []*T
	live  int
}

// NextID is the index the next Allocate will return.
func (a *Arena[T]) NextID() uint64 {
	for i, s := range a.slots {
		if s == nil {
			return uint64(i)
		}
	}
	return uint64(len(a.slots))
}

func (a *Arena[T]) Allocate(v *T) uint64 {
	id := a.NextID()
	if id == uint64(len(a.slots)) {
		a.slots = append(a.slots, v)
	} else {
		a.slots[id] = v
	}
	a.live++
	return id
}

func (a *Arena[T]) Get(id uint64) (*T, bool) {
	if id >= uint64(len(a.slots)) || a.slots[id] == nil {
		return nil, false
	}
	return a.slots[id], true
}

// Release tombstones a slot. Trailing tombstones are trimmed.
func (a *Arena[T]) Release(id uint64) bool {
	if _, ok := a.Get(id); !ok {
		return false
	}
	a.slots[id] = nil
	a.live--
	for len(a.slots) > 0 && a.slots[len(a.slots)-1] == nil {
		a.slots = a.slots[:len(a.slots)-1]
	}
	return true
}

// Len is the number of live slots.
func (a *Arena[T]) Len() int {
	return a.live
}

// Each visits live slots in ascending index order.
func (a *Arena[T]) Each(fn func(id uint64, v *T)) {
	for i, s := range a.slots {
		if s != nil {
			fn(uint64(i), s)
		}
	}
}

// IDs lists live slot indices in ascending order.
func (a *Arena[T]) IDs() []uint64 {
	ids := make([]uint64, 0, a.live)
	a.Each(func(id uint64, _ *T) { ids = append(ids, id) })
	return ids
}
