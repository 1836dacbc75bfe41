package vm

import (
	"reflect"
	"unsafe"

	"github.com/chazu/t10/tyck"
)

// DynBase is the uniform operation set the interpreter uses on a container
// without knowing its payload type. Every container the interpreter creates
// implements it.
type DynBase interface {
	// TypeID is the declared identity, comparable across containers.
	TypeID() reflect.Type
	// StorageType is the physical storage shape.
	StorageType() reflect.Type
	// TypeName names the storage shape, for diagnostics only.
	TypeName() string

	// Tyck reports whether the declared identity satisfies want, as judged
	// by the process-wide tyck.Comparator.
	Tyck(want tyck.Info) bool
	// TyckInfo describes the declared identity.
	TyckInfo() tyck.Info

	Ownership() Ownership
	SetOwnership(Ownership)

	// Ptr returns the address of the live data. Prechecked: the state must
	// be Owned, SharedWithHost or MutSharedWithHost.
	Ptr() unsafe.Pointer

	// MoveOut relocates an Owned payload into dest without checks.
	MoveOut(dest unsafe.Pointer)
	// MoveOutChecked verifies state and destination identity first.
	MoveOutChecked(dest unsafe.Pointer, destTy reflect.Type)

	// Drop destroys the container in place.
	Drop()
}

// MoveOutTo moves d's payload into dest, using the checked variant unless
// internal checks are compiled out.
func MoveOutTo(d DynBase, dest unsafe.Pointer, destTy reflect.Type) {
	if debugChecks {
		d.MoveOutChecked(dest, destTy)
		return
	}
	d.MoveOut(dest)
}

// Take moves the payload of the object v points at into a fresh T. The
// container's storage shape must be T.
func Take[T any](v Value) T {
	var out T
	MoveOutTo(v.Object(), unsafe.Pointer(&out), reflect.TypeFor[T]())
	return out
}
