package vm

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Object handles: the payload word of a pointer Value
// ---------------------------------------------------------------------------
//
// A pointer Value does not hold an address. It holds a handle into the
// process-wide cell table:
//
//   bits 0-31   slot index (0 is never issued)
//   bits 32-63  slot generation, bumped every time the slot is reissued
//
// Lookups are lock-free: one atomic load for the chunk and one for the slot.
// A handle whose generation no longer matches resolves to nil, so a Value
// that outlived Heap.Free is detected instead of aliasing the next object.

const (
	chunkBits = 10
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
	maxChunks = 1 << 12
)

type cellSlot struct {
	obj atomic.Pointer[Object]
	gen uint32 // guarded by cellTable.mu
}

type cellChunk [chunkSize]cellSlot

type cellTable struct {
	chunks [maxChunks]atomic.Pointer[cellChunk]

	mu   sync.Mutex
	free []uint32
	next uint32
}

var cells = &cellTable{next: 1}

func handleIndex(h uint64) uint32 { return uint32(h) }

// issue stores o in a free slot and sets o.handle.
func (t *cellTable) issue(o *Object) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = t.next
		if idx>>chunkBits >= maxChunks {
			fail("Heap.Alloc", "object table full (%d slots)", maxChunks*chunkSize)
		}
		t.next++
	}

	c := t.chunks[idx>>chunkBits].Load()
	if c == nil {
		c = new(cellChunk)
		t.chunks[idx>>chunkBits].Store(c)
	}
	s := &c[idx&chunkMask]
	s.gen++
	h := uint64(s.gen)<<32 | uint64(idx)
	o.handle = h
	s.obj.Store(o)
	return h
}

// release empties the slot behind h. Later lookups of h return nil.
func (t *cellTable) release(h uint64) {
	idx := handleIndex(h)
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.chunks[idx>>chunkBits].Load()
	if c == nil {
		return
	}
	if o := c[idx&chunkMask].obj.Load(); o == nil || o.handle != h {
		return
	}
	c[idx&chunkMask].obj.Store(nil)
	t.free = append(t.free, idx)
}

// lookup resolves h, or returns nil for a handle that was never issued or
// has been released.
func (t *cellTable) lookup(h uint64) *Object {
	idx := handleIndex(h)
	if idx == 0 || idx>>chunkBits >= maxChunks {
		return nil
	}
	c := t.chunks[idx>>chunkBits].Load()
	if c == nil {
		return nil
	}
	o := c[idx&chunkMask].obj.Load()
	if o == nil || o.handle != h {
		return nil
	}
	return o
}
