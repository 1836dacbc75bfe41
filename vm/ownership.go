package vm

// Ownership records who currently owns a container's data and whether it is
// safe to touch.
//
// Only Owned, SharedWithHost, MutSharedWithHost, MovedToHost and Dropped are
// ever stored in a container. Null and OnStack are answers synthesized by
// Value.Ownership when there is no container to ask.
type Ownership uint8

const (
	Owned             Ownership = 0
	SharedWithHost    Ownership = 1 // read-only reference to host data
	MutSharedWithHost Ownership = 2 // mutable reference to host data
	MovedToHost       Ownership = 3
	Dropped           Ownership = 4
	Null              Ownership = 5
	OnStack           Ownership = 6
)

// OwnershipFromByte decodes an ownership byte. An out-of-range byte can only
// come from memory corruption and is fatal.
func OwnershipFromByte(b uint8) Ownership {
	if b > uint8(OnStack) {
		fail("OwnershipFromByte", "invalid ownership byte %d", b)
	}
	return Ownership(b)
}

// Storable reports whether o may be written into a container's state field.
func (o Ownership) Storable() bool {
	return o <= Dropped
}

// Live reports whether data in this state may be addressed.
func (o Ownership) Live() bool {
	return o <= MutSharedWithHost
}

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "Owned"
	case SharedWithHost:
		return "SharedWithHost"
	case MutSharedWithHost:
		return "MutSharedWithHost"
	case MovedToHost:
		return "MovedToHost"
	case Dropped:
		return "Dropped"
	case Null:
		return "Null"
	case OnStack:
		return "OnStack"
	default:
		return "Ownership(?)"
	}
}
