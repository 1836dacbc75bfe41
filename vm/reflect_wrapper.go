package vm

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/chazu/t10/tyck"
)

// reflectWrapper is the container arm for payloads whose type is only known
// at run time, such as results of reflection-bound native functions. It keeps
// the Wrapper contract: inline storage while Owned, no shared form.
type reflectWrapper struct {
	slot  reflect.Value // addressable, holds the payload
	state atomic.Uint32
}

// NewOwnedValue boxes rv in an Owned container whose storage shape and
// declared identity are both rv's type.
func NewOwnedValue(rv reflect.Value) DynBase {
	if !rv.IsValid() {
		fail("NewOwnedValue", "invalid reflect.Value")
	}
	w := &reflectWrapper{slot: reflect.New(rv.Type()).Elem()}
	w.slot.Set(rv)
	w.state.Store(uint32(Owned))
	return w
}

func (w *reflectWrapper) TypeID() reflect.Type      { return w.slot.Type() }
func (w *reflectWrapper) StorageType() reflect.Type { return w.slot.Type() }
func (w *reflectWrapper) TypeName() string          { return w.slot.Type().String() }

func (w *reflectWrapper) Tyck(want tyck.Info) bool {
	return tyck.Current().Compatible(w.TyckInfo(), want)
}

func (w *reflectWrapper) TyckInfo() tyck.Info {
	return tyck.OfType(w.slot.Type())
}

func (w *reflectWrapper) Ownership() Ownership {
	return OwnershipFromByte(uint8(w.state.Load()))
}

func (w *reflectWrapper) SetOwnership(o Ownership) {
	if !o.Storable() {
		fail("reflectWrapper.SetOwnership", "%s is never stored in a container", o)
	}
	w.state.Store(uint32(o))
}

func (w *reflectWrapper) Ptr() unsafe.Pointer {
	if o := w.Ownership(); o != Owned {
		fail("reflectWrapper.Ptr", "cannot address %s value", o)
	}
	return w.slot.Addr().UnsafePointer()
}

func (w *reflectWrapper) MoveOut(dest unsafe.Pointer) {
	reflect.NewAt(w.slot.Type(), dest).Elem().Set(w.slot)
	w.slot.SetZero()
	w.state.Store(uint32(MovedToHost))
}

func (w *reflectWrapper) MoveOutChecked(dest unsafe.Pointer, destTy reflect.Type) {
	if destTy != w.slot.Type() {
		fail("reflectWrapper.MoveOutChecked", "destination is %v, container declares %v", destTy, w.slot.Type())
	}
	if dest == nil {
		fail("reflectWrapper.MoveOutChecked", "nil destination")
	}
	if !w.state.CompareAndSwap(uint32(Owned), uint32(MovedToHost)) {
		fail("reflectWrapper.MoveOutChecked", "container is %s, want Owned", w.Ownership())
	}
	reflect.NewAt(w.slot.Type(), dest).Elem().Set(w.slot)
	w.slot.SetZero()
}

func (w *reflectWrapper) Drop() {
	for {
		old := w.state.Load()
		switch Ownership(old) {
		case MovedToHost:
			return
		case Dropped:
			fail("reflectWrapper.Drop", "container already dropped")
		}
		if !w.state.CompareAndSwap(old, uint32(Dropped)) {
			continue
		}
		if old == uint32(Owned) {
			runDropper(w.slot.Addr().Interface(), w.slot.Interface())
		}
		w.slot.SetZero()
		return
	}
}
