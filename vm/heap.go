package vm

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Heap: keeps boxed objects reachable while Values refer to them
// ---------------------------------------------------------------------------

// Heap owns the *Object cells that pointer Values refer to. A Value holds
// only a handle, so a cell stays resolvable exactly as long as its heap keeps
// it allocated. Safe for concurrent use.
type Heap struct {
	id uuid.UUID

	objects   map[uint64]*Object
	objectsMu sync.RWMutex

	allocs atomic.Uint64
	frees  atomic.Uint64
}

// NewHeap creates an empty heap with a fresh identity.
func NewHeap() *Heap {
	return &Heap{
		id:      uuid.New(),
		objects: make(map[uint64]*Object),
	}
}

// ID returns the heap's identity.
func (h *Heap) ID() uuid.UUID {
	return h.id
}

// Alloc boxes d in a new cell and returns a pointer Value for it.
func (h *Heap) Alloc(d DynBase) Value {
	if d == nil {
		fail("Heap.Alloc", "nil container")
	}
	o := &Object{DynBase: d}
	handle := cells.issue(o)
	h.objectsMu.Lock()
	h.objects[handle] = o
	h.objectsMu.Unlock()
	h.allocs.Add(1)
	log.Debugf("heap %s: alloc %s (%s)", h.id, d.TypeName(), d.Ownership())
	return newValue(handle, 0)
}

// Contains reports whether v points at a live cell of this heap.
func (h *Heap) Contains(v Value) bool {
	if !v.IsPtr() || v.IsNull() {
		return false
	}
	h.objectsMu.RLock()
	defer h.objectsMu.RUnlock()
	_, ok := h.objects[v.data]
	return ok
}

// Free drops the object v points at and releases its cell. Any Value still
// referring to the cell is stale afterwards. Freeing a Value that this heap
// does not own is a defect, and so is freeing one whose object was already
// dropped; either way the heap is left unchanged.
func (h *Heap) Free(v Value) {
	if v.IsValue() || v.IsNull() {
		fail("Heap.Free", "not a non-null pointer")
	}
	h.objectsMu.RLock()
	o, ok := h.objects[v.data]
	h.objectsMu.RUnlock()
	if !ok {
		fail("Heap.Free", "object not owned by heap %s", h.id)
	}

	o.Drop()

	h.objectsMu.Lock()
	_, ok = h.objects[v.data]
	delete(h.objects, v.data)
	h.objectsMu.Unlock()
	if !ok {
		fail("Heap.Free", "object freed concurrently")
	}
	cells.release(v.data)
	h.frees.Add(1)
	log.Debugf("heap %s: free %s (%s)", h.id, o.TypeName(), o.Ownership())
}

// Len returns the number of live cells.
func (h *Heap) Len() int {
	h.objectsMu.RLock()
	defer h.objectsMu.RUnlock()
	return len(h.objects)
}

// Each calls fn with a Value for every live cell, in no particular order.
// fn must not call Alloc or Free on the same heap.
func (h *Heap) Each(fn func(Value)) {
	h.objectsMu.RLock()
	defer h.objectsMu.RUnlock()
	for handle := range h.objects {
		fn(newValue(handle, 0))
	}
}

// HeapStats is a point-in-time view of allocation counters.
type HeapStats struct {
	Live   int
	Allocs uint64
	Frees  uint64
}

// Stats returns the heap's allocation counters.
func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Live:   h.Len(),
		Allocs: h.allocs.Load(),
		Frees:  h.frees.Load(),
	}
}
