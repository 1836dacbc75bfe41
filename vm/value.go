package vm

import (
	"fmt"
	"math"
	"reflect"

	"github.com/chazu/t10/tyck"
)

// Value is the tagged union the interpreter passes around.
//
// A Value is one payload word plus one tag byte (see markers.go). A scalar
// (Int, Float, Char, Byte, Bool) is stored inline in the payload. A heap
// value is stored as a handle to an *Object cell (see handles.go), whose
// DynBase does the real work. Four tag combinations matter:
//
//   - pointer, non-null: an ordinary heap value
//   - pointer, null:     no object at all
//   - scalar, non-null:  an actual number, char, byte or bool
//   - scalar, null:      a typed but absent scalar
//
// A Value has no destructor and never owns the object it points at. The
// object stays resolvable until its Heap frees it.
type Value struct {
	data uint64
	tag  uint8
}

// Object is the heap cell a pointer Value refers to. It exists so that a
// single payload word can still dispatch through DynBase.
type Object struct {
	DynBase
	handle uint64
}

// Scalar identities reported by TypeID.
var (
	intType   = reflect.TypeFor[int64]()
	floatType = reflect.TypeFor[float64]()
	charType  = reflect.TypeFor[rune]()
	byteType  = reflect.TypeFor[byte]()
	boolType  = reflect.TypeFor[bool]()
)

// ScalarType returns the identity token for a scalar kind. AnyType maps to
// the dynamic "any" marker.
func ScalarType(k ValueType) reflect.Type {
	switch k {
	case Int:
		return intType
	case Float:
		return floatType
	case Char:
		return charType
	case Byte:
		return byteType
	case Bool:
		return boolType
	case AnyType:
		return tyck.AnyType()
	}
	fail("ScalarType", "invalid value type %d", uint8(k))
	return nil
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func newValue(data uint64, tag uint8) Value {
	return Value{data: data, tag: tag}
}

// FromInt creates an inline Int.
func FromInt(n int64) Value {
	return newValue(uint64(n), valueMask|uint8(Int))
}

// FromFloat creates an inline Float.
func FromFloat(f float64) Value {
	return newValue(math.Float64bits(f), valueMask|uint8(Float))
}

// FromChar creates an inline Char.
func FromChar(r rune) Value {
	return newValue(uint64(uint32(r)), valueMask|uint8(Char))
}

// FromByte creates an inline Byte.
func FromByte(b byte) Value {
	return newValue(uint64(b), valueMask|uint8(Byte))
}

// FromBool creates an inline Bool.
func FromBool(b bool) Value {
	var data uint64
	if b {
		data = 1
	}
	return newValue(data, valueMask|uint8(Bool))
}

// FromObject creates a pointer Value referring to o, which must have been
// allocated by a Heap and not yet freed.
func FromObject(o *Object) Value {
	if debugChecks && (o == nil || cells.lookup(o.handle) != o) {
		fail("FromObject", "object is not allocated on a heap")
	}
	return newValue(o.handle, 0)
}

// NullPtr is the "no object" Value.
func NullPtr() Value {
	return newValue(0, nullMask)
}

// NullValue is a typed but absent scalar of kind k.
func NullValue(k ValueType) Value {
	k = ValueTypeFromByte(uint8(k))
	return newValue(0, valueMask|nullMask|uint8(k))
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// IsNull reports whether v is logically null. Always safe to call.
func (v Value) IsNull() bool {
	return v.tag&nullMask != 0
}

// IsValue reports whether v is an inline scalar.
func (v Value) IsValue() bool {
	return v.tag&valueMask != 0
}

// IsPtr reports whether v is a heap value (possibly the null pointer).
func (v Value) IsPtr() bool {
	return v.tag&valueMask == 0
}

// Kind returns the scalar kind. Prechecked: v must be a scalar.
func (v Value) Kind() ValueType {
	if debugChecks && !v.IsValue() {
		fail("Value.Kind", "not a scalar")
	}
	return ValueTypeFromByte(v.tag & valueTypeMask)
}

// TypeID returns v's identity: a fixed token per scalar kind, or the
// pointed-at object's declared identity. Calling it on the null pointer is a
// defect.
func (v Value) TypeID() reflect.Type {
	if v.IsValue() {
		return ScalarType(ValueTypeFromByte(v.tag & valueTypeMask))
	}
	if v.IsNull() {
		fail("Value.TypeID", "should not use TypeID on null pointer")
	}
	return v.obj().TypeID()
}

// Ownership reports OnStack for scalars, Null for the null pointer, and the
// object's own state otherwise.
func (v Value) Ownership() Ownership {
	if v.IsValue() {
		return OnStack
	}
	if v.IsNull() {
		return Null
	}
	return v.obj().Ownership()
}

// SetOwnership forwards to the pointed-at object. Prechecked: v must be a
// non-null pointer.
func (v Value) SetOwnership(o Ownership) {
	if debugChecks && (v.IsValue() || v.IsNull()) {
		fail("Value.SetOwnership", "not a non-null pointer")
	}
	v.obj().SetOwnership(o)
}

// Object returns the capability interface of the pointed-at object.
// Prechecked: v must be a non-null pointer.
func (v Value) Object() DynBase {
	if debugChecks && (v.IsValue() || v.IsNull()) {
		fail("Value.Object", "not a non-null pointer")
	}
	return v.obj().DynBase
}

func (v Value) obj() *Object {
	o := cells.lookup(v.data)
	if debugChecks && o == nil {
		fail("Value", "stale or invalid object handle %#x", v.data)
	}
	return o
}

// ---------------------------------------------------------------------------
// Unchecked access
// ---------------------------------------------------------------------------

// Ref reinterprets the pointed-at object's live data as a T. No type check
// is made: the call site must already have verified TypeID or Tyck.
// Prechecked: v must be a non-null pointer to a live object.
func Ref[T any](v Value) *T {
	if debugChecks && (v.IsValue() || v.IsNull()) {
		fail("Ref", "not a non-null pointer")
	}
	return (*T)(v.obj().Ptr())
}

// MutRef is Ref for call sites that will write through the result. The
// same preconditions apply, and the object must not be SharedWithHost.
func MutRef[T any](v Value) *T {
	if debugChecks && (v.IsValue() || v.IsNull()) {
		fail("MutRef", "not a non-null pointer")
	}
	if debugChecks && v.obj().Ownership() == SharedWithHost {
		fail("MutRef", "object is shared read-only with the host")
	}
	return (*T)(v.obj().Ptr())
}

// ---------------------------------------------------------------------------
// Scalar payloads
// ---------------------------------------------------------------------------

func (v Value) checkScalar(op string, k ValueType) {
	if v.tag&(valueMask|nullMask|valueTypeMask) != valueMask|uint8(k) {
		fail(op, "not a non-null %s", k)
	}
}

// Int returns the inline Int. Prechecked.
func (v Value) Int() int64 {
	if debugChecks {
		v.checkScalar("Value.Int", Int)
	}
	return int64(v.data)
}

// Float returns the inline Float. Prechecked.
func (v Value) Float() float64 {
	if debugChecks {
		v.checkScalar("Value.Float", Float)
	}
	return math.Float64frombits(v.data)
}

// Char returns the inline Char. Prechecked.
func (v Value) Char() rune {
	if debugChecks {
		v.checkScalar("Value.Char", Char)
	}
	return rune(uint32(v.data))
}

// Byte returns the inline Byte. Prechecked.
func (v Value) Byte() byte {
	if debugChecks {
		v.checkScalar("Value.Byte", Byte)
	}
	return byte(v.data)
}

// Bool returns the inline Bool. Prechecked.
func (v Value) Bool() bool {
	if debugChecks {
		v.checkScalar("Value.Bool", Bool)
	}
	return v.data != 0
}

// ---------------------------------------------------------------------------
// Raw encoding
// ---------------------------------------------------------------------------

// Tag returns the raw tag byte. Always safe to call.
func (v Value) Tag() uint8 {
	return v.tag
}

// IsScalarTag reports whether tag is a well-formed scalar tag that FromBits
// accepts.
func IsScalarTag(tag uint8) bool {
	if tag&valueMask == 0 || tag&^(valueMask|nullMask|valueTypeMask) != 0 {
		return false
	}
	k := tag & valueTypeMask
	if k < uint8(Int) || k > uint8(AnyType) {
		return false
	}
	return k != uint8(AnyType) || tag&nullMask != 0
}

// Bits returns the raw payload and tag of a scalar Value, for encoders.
func (v Value) Bits() (uint64, uint8) {
	if v.IsPtr() {
		fail("Value.Bits", "pointer payloads have no stable encoding")
	}
	return v.data, v.tag
}

// FromBits rebuilds a scalar Value from Bits. The tag must describe a
// scalar.
func FromBits(data uint64, tag uint8) Value {
	if !IsScalarTag(tag) {
		fail("FromBits", "tag 0x%02x is not a scalar tag", tag)
	}
	if tag&nullMask != 0 {
		data = 0
	}
	return newValue(data, tag)
}

func (v Value) String() string {
	if v.IsPtr() {
		if v.IsNull() {
			return "null"
		}
		o := cells.lookup(v.data)
		if o == nil {
			return "<freed>"
		}
		return fmt.Sprintf("<%s %s>", o.TypeName(), o.Ownership())
	}
	k := ValueType(v.tag & valueTypeMask)
	if v.IsNull() {
		return "null " + k.String()
	}
	switch k {
	case Int:
		return fmt.Sprintf("%d", int64(v.data))
	case Float:
		return fmt.Sprintf("%g", math.Float64frombits(v.data))
	case Char:
		return fmt.Sprintf("%q", rune(uint32(v.data)))
	case Byte:
		return fmt.Sprintf("0x%02x", byte(v.data))
	case Bool:
		return fmt.Sprintf("%t", v.data != 0)
	}
	return "<invalid>"
}
