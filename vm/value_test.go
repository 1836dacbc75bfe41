package vm

import (
	"math"
	"reflect"
	"testing"
	"unsafe"

	"github.com/chazu/t10/tyck"
)

// expectDefect runs fn and fails the test unless it panics with a *Defect.
func expectDefect(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("%s: expected defect panic", name)
			return
		}
		if _, ok := r.(*Defect); !ok {
			t.Errorf("%s: panic value %T (%v), want *Defect", name, r, r)
		}
	}()
	fn()
}

func requireChecks(t *testing.T) {
	t.Helper()
	if !ChecksEnabled() {
		t.Skip("internal checks compiled out")
	}
}

// ---------------------------------------------------------------------------
// Scalar round trips
// ---------------------------------------------------------------------------

func TestIntRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -42, math.MaxInt64, math.MinInt64}
	for _, n := range tests {
		v := FromInt(n)
		if !v.IsValue() || v.IsPtr() || v.IsNull() {
			t.Errorf("FromInt(%d) flags: value=%v ptr=%v null=%v", n, v.IsValue(), v.IsPtr(), v.IsNull())
		}
		if v.Kind() != Int {
			t.Errorf("FromInt(%d).Kind() = %v, want Int", n, v.Kind())
		}
		if v.TypeID() != reflect.TypeFor[int64]() {
			t.Errorf("FromInt(%d).TypeID() = %v", n, v.TypeID())
		}
		if got := v.Int(); got != n {
			t.Errorf("FromInt(%d).Int() = %d", n, got)
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	tests := []float64{
		0.0,
		math.Copysign(0, -1),
		3.14159265358979,
		-3.14159265358979,
		math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		math.Inf(1),
		math.Inf(-1),
	}
	for _, f := range tests {
		v := FromFloat(f)
		if !v.IsValue() || v.IsNull() {
			t.Errorf("FromFloat(%v) should be a non-null scalar", f)
		}
		if v.TypeID() != reflect.TypeFor[float64]() {
			t.Errorf("FromFloat(%v).TypeID() = %v", f, v.TypeID())
		}
		got := v.Float()
		if math.Float64bits(got) != math.Float64bits(f) {
			t.Errorf("FromFloat(%v).Float() = %v", f, got)
		}
	}
}

func TestFloatNaN(t *testing.T) {
	v := FromFloat(math.NaN())
	if !math.IsNaN(v.Float()) {
		t.Error("NaN roundtrip failed")
	}
}

func TestCharRoundTrip(t *testing.T) {
	for _, r := range []rune{'a', 'Z', 0, 'λ', '😀', math.MaxInt32} {
		v := FromChar(r)
		if v.Kind() != Char {
			t.Errorf("FromChar(%q).Kind() = %v", r, v.Kind())
		}
		if v.TypeID() != reflect.TypeFor[rune]() {
			t.Errorf("FromChar(%q).TypeID() = %v", r, v.TypeID())
		}
		if got := v.Char(); got != r {
			t.Errorf("FromChar(%q).Char() = %q", r, got)
		}
	}
}

func TestByteRoundTrip(t *testing.T) {
	for _, b := range []byte{0, 1, 0x7f, 0x80, 0xff} {
		v := FromByte(b)
		if v.Kind() != Byte || v.TypeID() != reflect.TypeFor[byte]() {
			t.Errorf("FromByte(%#x) kind/type = %v/%v", b, v.Kind(), v.TypeID())
		}
		if got := v.Byte(); got != b {
			t.Errorf("FromByte(%#x).Byte() = %#x", b, got)
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		v := FromBool(b)
		if v.Kind() != Bool || v.TypeID() != reflect.TypeFor[bool]() {
			t.Errorf("FromBool(%v) kind/type = %v/%v", b, v.Kind(), v.TypeID())
		}
		if got := v.Bool(); got != b {
			t.Errorf("FromBool(%v).Bool() = %v", b, got)
		}
	}
}

func TestScalarOwnershipIsOnStack(t *testing.T) {
	values := []Value{FromInt(1), FromFloat(1), FromChar('x'), FromByte(1), FromBool(true), NullValue(Int)}
	for _, v := range values {
		if got := v.Ownership(); got != OnStack {
			t.Errorf("%v.Ownership() = %v, want OnStack", v, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Null variants
// ---------------------------------------------------------------------------

func TestNullPtr(t *testing.T) {
	v := NullPtr()
	if !v.IsNull() {
		t.Error("IsNull should be true")
	}
	if !v.IsPtr() {
		t.Error("IsPtr should be true")
	}
	if v.IsValue() {
		t.Error("IsValue should be false")
	}
	if v.Ownership() != Null {
		t.Errorf("Ownership() = %v, want Null", v.Ownership())
	}
}

func TestNullValue(t *testing.T) {
	kinds := []ValueType{Int, Float, Char, Byte, Bool, AnyType}
	for _, k := range kinds {
		v := NullValue(k)
		if !v.IsValue() || !v.IsNull() || v.IsPtr() {
			t.Errorf("NullValue(%v) flags: value=%v null=%v ptr=%v", k, v.IsValue(), v.IsNull(), v.IsPtr())
		}
		if v.Kind() != k {
			t.Errorf("NullValue(%v).Kind() = %v", k, v.Kind())
		}
		if v.TypeID() != ScalarType(k) {
			t.Errorf("NullValue(%v).TypeID() = %v", k, v.TypeID())
		}
	}
}

func TestNullAnyIdentity(t *testing.T) {
	if got := NullValue(AnyType).TypeID(); got != tyck.AnyType() {
		t.Errorf("NullValue(AnyType).TypeID() = %v, want any marker", got)
	}
}

func TestDistinctEncodings(t *testing.T) {
	values := []Value{
		FromInt(0), FromFloat(0), FromChar(0), FromByte(0), FromBool(false),
		NullPtr(), NullValue(Int), NullValue(Float),
	}
	for i := range values {
		for j := i + 1; j < len(values); j++ {
			if values[i] == values[j] {
				t.Errorf("values[%d] == values[%d] (%v)", i, j, values[i])
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Pointer values
// ---------------------------------------------------------------------------

type point struct {
	X, Y int32
}

func TestPointerValue(t *testing.T) {
	h := NewHeap()
	v := h.Alloc(NewOwned(point{X: 3, Y: 4}))

	if !v.IsPtr() || v.IsValue() || v.IsNull() {
		t.Fatalf("flags: ptr=%v value=%v null=%v", v.IsPtr(), v.IsValue(), v.IsNull())
	}
	if v.TypeID() != reflect.TypeFor[point]() {
		t.Errorf("TypeID() = %v", v.TypeID())
	}
	if v.Ownership() != Owned {
		t.Errorf("Ownership() = %v", v.Ownership())
	}
	p := Ref[point](v)
	if p.X != 3 || p.Y != 4 {
		t.Errorf("Ref = %+v", *p)
	}
	MutRef[point](v).X = 10
	if Ref[point](v).X != 10 {
		t.Error("write through MutRef not visible")
	}
}

func TestSetOwnershipForwards(t *testing.T) {
	h := NewHeap()
	w := NewOwned(point{})
	v := h.Alloc(w)
	v.SetOwnership(MovedToHost)
	if w.Ownership() != MovedToHost {
		t.Errorf("container state = %v, want MovedToHost", w.Ownership())
	}
	if v.Ownership() != MovedToHost {
		t.Errorf("value state = %v, want MovedToHost", v.Ownership())
	}
}

func TestValueSize(t *testing.T) {
	var v Value
	if got := unsafe.Offsetof(v.tag); got != 8 {
		t.Errorf("tag offset = %d, want 8", got)
	}
	if got := unsafe.Sizeof(v); got != 16 {
		t.Errorf("Value size = %d, want 16 (one word + tag, aligned)", got)
	}
}

// ---------------------------------------------------------------------------
// Defects
// ---------------------------------------------------------------------------

func TestTypeIDOnNullPtrIsDefect(t *testing.T) {
	expectDefect(t, "NullPtr().TypeID", func() { NullPtr().TypeID() })
}

func TestPrecheckedAccessorDefects(t *testing.T) {
	requireChecks(t)

	expectDefect(t, "Ref on scalar", func() { Ref[int64](FromInt(1)) })
	expectDefect(t, "Ref on null", func() { Ref[point](NullPtr()) })
	expectDefect(t, "MutRef on null", func() { MutRef[point](NullPtr()) })
	expectDefect(t, "SetOwnership on scalar", func() { FromInt(1).SetOwnership(Owned) })
	expectDefect(t, "SetOwnership on null", func() { NullPtr().SetOwnership(Owned) })
	expectDefect(t, "Int on Float", func() { FromFloat(1).Int() })
	expectDefect(t, "Float on null Float", func() { NullValue(Float).Float() })
	expectDefect(t, "Bool on pointer", func() { NullPtr().Bool() })
	expectDefect(t, "Kind on pointer", func() { NullPtr().Kind() })
}

func TestMutRefOnSharedIsDefect(t *testing.T) {
	requireChecks(t)
	h := NewHeap()
	p := point{}
	v := h.Alloc(NewShared(&p))
	expectDefect(t, "MutRef on shared", func() { MutRef[point](v) })
}

func TestValueTypeFromByte(t *testing.T) {
	for b := uint8(1); b <= 6; b++ {
		if got := ValueTypeFromByte(b); uint8(got) != b {
			t.Errorf("ValueTypeFromByte(%d) = %d", b, got)
		}
	}
	expectDefect(t, "ValueTypeFromByte(0)", func() { ValueTypeFromByte(0) })
	expectDefect(t, "ValueTypeFromByte(7)", func() { ValueTypeFromByte(7) })
}

// ---------------------------------------------------------------------------
// Raw encoding
// ---------------------------------------------------------------------------

func TestBitsRoundTrip(t *testing.T) {
	values := []Value{
		FromInt(-7), FromFloat(2.5), FromChar('q'), FromByte(9), FromBool(true),
		NullValue(Int), NullValue(AnyType),
	}
	for _, v := range values {
		data, tag := v.Bits()
		if got := FromBits(data, tag); got != v {
			t.Errorf("FromBits(Bits(%v)) = %v", v, got)
		}
	}
}

func TestBitsRejectsPointers(t *testing.T) {
	expectDefect(t, "NullPtr().Bits", func() { NullPtr().Bits() })
	expectDefect(t, "FromBits pointer tag", func() { FromBits(0, 0) })
	expectDefect(t, "FromBits reserved bits", func() { FromBits(0, valueMask|0x08|uint8(Int)) })
	expectDefect(t, "FromBits non-null Any", func() { FromBits(0, valueMask|uint8(AnyType)) })
}

func TestValueString(t *testing.T) {
	h := NewHeap()
	tests := []struct {
		v    Value
		want string
	}{
		{FromInt(-3), "-3"},
		{FromFloat(1.5), "1.5"},
		{FromChar('a'), "'a'"},
		{FromByte(0xab), "0xab"},
		{FromBool(true), "true"},
		{NullPtr(), "null"},
		{NullValue(Float), "null Float"},
		{h.Alloc(NewOwned(point{})), "<vm.point Owned>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsScalarTag(t *testing.T) {
	tests := []struct {
		tag  uint8
		want bool
	}{
		{FromInt(1).Tag(), true},
		{NullValue(Bool).Tag(), true},
		{NullValue(AnyType).Tag(), true},
		{valueMask | uint8(AnyType), false},
		{valueMask, false},
		{valueMask | 7, false},
		{NullPtr().Tag(), false},
		{0, false},
		{valueMask | 0x10 | uint8(Int), false},
	}
	for _, tt := range tests {
		if got := IsScalarTag(tt.tag); got != tt.want {
			t.Errorf("IsScalarTag(%#02x) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}
