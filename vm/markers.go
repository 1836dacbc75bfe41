package vm

// ---------------------------------------------------------------------------
// Tag byte layout
// ---------------------------------------------------------------------------
//
//   bit 7    1 = payload is an inline scalar, 0 = payload is an *Object
//   bit 6    1 = logically null
//   bits 0-2 scalar kind (ValueType), meaningful only when bit 7 is set
//
// IMPORTANT: these values are part of the snapshot format written by package
// wire. Never renumber them.

const (
	valueMask     uint8 = 0b1000_0000
	nullMask      uint8 = 0b0100_0000
	valueTypeMask uint8 = 0b0000_0111
)

// ValueType is the scalar kind stored in the low bits of a scalar tag.
type ValueType uint8

const (
	Int     ValueType = 1
	Float   ValueType = 2
	Char    ValueType = 3
	Byte    ValueType = 4
	Bool    ValueType = 5
	AnyType ValueType = 6 // identity queries only, never stored with a payload
)

// ValueTypeFromByte decodes a scalar kind. Anything outside 1..6 is a defect.
func ValueTypeFromByte(b uint8) ValueType {
	if b < uint8(Int) || b > uint8(AnyType) {
		fail("ValueTypeFromByte", "invalid value type %d", b)
	}
	return ValueType(b)
}

func (t ValueType) String() string {
	switch t {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Char:
		return "Char"
	case Byte:
		return "Byte"
	case Bool:
		return "Bool"
	case AnyType:
		return "Any"
	default:
		return "ValueType(?)"
	}
}
