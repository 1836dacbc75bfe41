// Package wire encodes snapshots of interpreter Values for diagnostics.
//
// Inline scalars are recorded by payload and survive a round trip exactly.
// Heap objects cannot leave the process; they are recorded by declared
// identity, storage name and ownership state only.
package wire

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/t10/tyck"
	"github.com/chazu/t10/vm"
)

// Entry is one recorded Value.
type Entry struct {
	Tag     uint8  `cbor:"1,keyasint"`
	Data    uint64 `cbor:"2,keyasint,omitempty"`
	TypeID  uint16 `cbor:"3,keyasint,omitempty"`
	Storage string `cbor:"4,keyasint,omitempty"`
	State   uint8  `cbor:"5,keyasint"`
}

// TypeEntry names an identity referenced by Entry.TypeID.
type TypeEntry struct {
	ID   uint16 `cbor:"1,keyasint"`
	Name string `cbor:"2,keyasint"`
}

// Snapshot is a recorded slice of Values.
type Snapshot struct {
	Heap    uuid.UUID   `cbor:"1,keyasint"`
	TakenAt time.Time   `cbor:"2,keyasint"`
	Types   []TypeEntry `cbor:"3,keyasint,omitempty"`
	Values  []Entry     `cbor:"4,keyasint"`
}

// Capture records values. heap identifies where the objects live and may be
// uuid.Nil.
func Capture(heap uuid.UUID, values []vm.Value) *Snapshot {
	reg := tyck.NewRegistry()
	s := &Snapshot{
		Heap:    heap,
		TakenAt: time.Now().UTC(),
		Values:  make([]Entry, len(values)),
	}
	for i, v := range values {
		s.Values[i] = capture(reg, v)
	}
	for id := uint16(1); int(id) <= reg.Count(); id++ {
		info := reg.Lookup(id)
		s.Types = append(s.Types, TypeEntry{ID: info.ID, Name: info.Name})
	}
	return s
}

// CaptureHeap records every live object on h.
func CaptureHeap(h *vm.Heap) *Snapshot {
	var values []vm.Value
	h.Each(func(v vm.Value) { values = append(values, v) })
	return Capture(h.ID(), values)
}

func capture(reg *tyck.Registry, v vm.Value) Entry {
	if v.IsValue() {
		data, tag := v.Bits()
		return Entry{Tag: tag, Data: data, State: uint8(vm.OnStack)}
	}
	if v.IsNull() {
		return Entry{Tag: v.Tag(), State: uint8(vm.Null)}
	}
	obj := v.Object()
	return Entry{
		Tag:     v.Tag(),
		TypeID:  reg.Register(obj.TypeID()),
		Storage: obj.TypeName(),
		State:   uint8(obj.Ownership()),
	}
}

// TypeName returns the identity name recorded for id.
func (s *Snapshot) TypeName(id uint16) string {
	for _, t := range s.Types {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

// Restore rebuilds the recorded Values. Scalars come back exactly; objects
// come back as the null pointer since their storage did not travel.
func (s *Snapshot) Restore() ([]vm.Value, error) {
	out := make([]vm.Value, len(s.Values))
	for i, e := range s.Values {
		v, err := e.Value()
		if err != nil {
			return nil, fmt.Errorf("wire: entry %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Value rebuilds a single entry.
func (e Entry) Value() (vm.Value, error) {
	if e.State > uint8(vm.OnStack) {
		return vm.NullPtr(), fmt.Errorf("invalid ownership byte %d", e.State)
	}
	if e.IsScalar() {
		if !vm.IsScalarTag(e.Tag) {
			return vm.NullPtr(), fmt.Errorf("invalid scalar tag 0x%02x", e.Tag)
		}
		return vm.FromBits(e.Data, e.Tag), nil
	}
	return vm.NullPtr(), nil
}

// IsScalar reports whether the entry recorded an inline scalar.
func (e Entry) IsScalar() bool {
	return vm.Ownership(e.State) == vm.OnStack
}

// Ownership returns the recorded ownership state.
func (e Entry) Ownership() vm.Ownership {
	return vm.Ownership(e.State)
}

func (e Entry) String() string {
	switch {
	case e.IsScalar():
		if v, err := e.Value(); err == nil {
			return v.String()
		}
		return fmt.Sprintf("<bad scalar 0x%02x>", e.Tag)
	case vm.Ownership(e.State) == vm.Null:
		return "null"
	default:
		return fmt.Sprintf("<%s %s>", e.Storage, vm.Ownership(e.State))
	}
}
