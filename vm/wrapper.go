package vm

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/chazu/t10/tyck"
)

// ---------------------------------------------------------------------------
// Wrapper: container for host data seen by the interpreter
// ---------------------------------------------------------------------------

// Wrapper boxes one piece of data for the interpreter.
//
// A is the storage shape: what the container physically holds. S is the
// declared identity reported to the type checker. They usually agree; they
// differ when a storage shape should be reasoned about as another logical
// type.
//
// The data is either held inline (valid while Owned) or referenced through a
// non-owning pointer to host memory (valid while SharedWithHost or
// MutSharedWithHost). The state is a single byte read and written with
// sequentially consistent atomics; it arbitrates who may address the data,
// it does not serialize access to the data itself.
type Wrapper[A, S any] struct {
	value A
	ptr   *A
	state atomic.Uint32
}

// Dropper is implemented by payloads that need cleanup when an Owned
// container is dropped.
type Dropper interface {
	Drop()
}

// runDropper calls the Drop hook of an Owned payload, given its slot address
// and its value. A nil pointer or nil interface payload has nothing to clean
// up and is skipped.
func runDropper(addr, value any) {
	if d, ok := addr.(Dropper); ok {
		d.Drop()
		return
	}
	d, ok := value.(Dropper)
	if !ok {
		return
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return
		}
	}
	d.Drop()
}

// NewOwned stores data inline. State is Owned.
func NewOwned[T any](data T) *Wrapper[T, T] {
	return NewOwnedAs[T, T](data)
}

// NewShared refers to host data read-only. The caller guarantees *ref
// outlives the container.
func NewShared[T any](ref *T) *Wrapper[T, T] {
	return NewSharedAs[T, T](ref)
}

// NewMutShared refers to host data mutably. The caller guarantees exclusive
// access to *ref for the container's lifetime.
func NewMutShared[T any](ref *T) *Wrapper[T, T] {
	return NewMutSharedAs[T, T](ref)
}

// NewOwnedAs is NewOwned with a declared identity S distinct from the
// storage shape A.
func NewOwnedAs[A, S any](data A) *Wrapper[A, S] {
	w := &Wrapper[A, S]{value: data}
	w.state.Store(uint32(Owned))
	return w
}

// NewSharedAs is NewShared with a declared identity S.
func NewSharedAs[A, S any](ref *A) *Wrapper[A, S] {
	if ref == nil {
		fail("NewShared", "nil reference")
	}
	w := &Wrapper[A, S]{ptr: ref}
	w.state.Store(uint32(SharedWithHost))
	return w
}

// NewMutSharedAs is NewMutShared with a declared identity S.
func NewMutSharedAs[A, S any](ref *A) *Wrapper[A, S] {
	if ref == nil {
		fail("NewMutShared", "nil reference")
	}
	w := &Wrapper[A, S]{ptr: ref}
	w.state.Store(uint32(MutSharedWithHost))
	return w
}

// ---------------------------------------------------------------------------
// DynBase implementation
// ---------------------------------------------------------------------------

func (w *Wrapper[A, S]) TypeID() reflect.Type {
	return reflect.TypeFor[S]()
}

func (w *Wrapper[A, S]) StorageType() reflect.Type {
	return reflect.TypeFor[A]()
}

func (w *Wrapper[A, S]) TypeName() string {
	return reflect.TypeFor[A]().String()
}

func (w *Wrapper[A, S]) Tyck(want tyck.Info) bool {
	return tyck.Current().Compatible(tyck.Of[S](), want)
}

func (w *Wrapper[A, S]) TyckInfo() tyck.Info {
	return tyck.Of[S]()
}

func (w *Wrapper[A, S]) Ownership() Ownership {
	return OwnershipFromByte(uint8(w.state.Load()))
}

func (w *Wrapper[A, S]) SetOwnership(o Ownership) {
	if !o.Storable() {
		fail("Wrapper.SetOwnership", "%s is never stored in a container", o)
	}
	w.state.Store(uint32(o))
}

// Ptr returns the address of the live data: the inline slot when Owned, the
// host address when shared. Any other state is a defect; callers must have
// checked reachability first.
func (w *Wrapper[A, S]) Ptr() unsafe.Pointer {
	switch o := w.Ownership(); o {
	case Owned:
		return unsafe.Pointer(&w.value)
	case SharedWithHost, MutSharedWithHost:
		return unsafe.Pointer(w.ptr)
	case MovedToHost:
		fail("Wrapper.Ptr", "cannot use moved value")
	case Dropped:
		fail("Wrapper.Ptr", "cannot use dropped value")
	default:
		fail("Wrapper.Ptr", "%s should not occur at this layer", o)
	}
	return nil
}

// MoveOut relocates the inline data into dest, which must point at storage
// for an A. No state or identity checks are made. State becomes MovedToHost.
func (w *Wrapper[A, S]) MoveOut(dest unsafe.Pointer) {
	*(*A)(dest) = w.value
	var zero A
	w.value = zero
	w.state.Store(uint32(MovedToHost))
}

// MoveOutChecked is MoveOut after verifying that destTy is the declared
// identity and that the container is Owned. The transition to MovedToHost is
// a compare-and-swap, so of several concurrent callers exactly one moves the
// data and the rest fail.
func (w *Wrapper[A, S]) MoveOutChecked(dest unsafe.Pointer, destTy reflect.Type) {
	if want := reflect.TypeFor[S](); destTy != want {
		fail("Wrapper.MoveOutChecked", "destination is %v, container declares %v", destTy, want)
	}
	if dest == nil {
		fail("Wrapper.MoveOutChecked", "nil destination")
	}
	if !w.state.CompareAndSwap(uint32(Owned), uint32(MovedToHost)) {
		fail("Wrapper.MoveOutChecked", "container is %s, want Owned", w.Ownership())
	}
	*(*A)(dest) = w.value
	var zero A
	w.value = zero
	log.Debugf("moved %s out to host", w.TypeName())
}

// Drop destroys the container in place. An Owned payload has its Drop hook
// run and the slot cleared. Shared host data is never touched. Dropping a
// moved container only releases it; dropping twice is a defect.
func (w *Wrapper[A, S]) Drop() {
	for {
		old := w.state.Load()
		switch Ownership(old) {
		case MovedToHost:
			return
		case Dropped:
			fail("Wrapper.Drop", "container already dropped")
		}
		if !w.state.CompareAndSwap(old, uint32(Dropped)) {
			continue
		}
		if Ownership(old) == Owned {
			runDropper(any(&w.value), any(w.value))
			var zero A
			w.value = zero
		}
		w.ptr = nil
		return
	}
}
