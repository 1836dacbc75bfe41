package tyck

import (
	"sync/atomic"
)

// Comparator decides whether a value described by have may be used where
// want is required.
type Comparator interface {
	Compatible(have, want Info) bool
}

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc func(have, want Info) bool

func (f ComparatorFunc) Compatible(have, want Info) bool { return f(have, want) }

type exact struct{}

func (exact) Compatible(have, want Info) bool {
	if have.IsZero() || want.IsZero() {
		return false
	}
	if want.IsAny() {
		return true
	}
	return have.Type == want.Type
}

type assignable struct{}

func (assignable) Compatible(have, want Info) bool {
	if Exact.Compatible(have, want) {
		return true
	}
	if have.IsZero() || want.IsZero() {
		return false
	}
	return have.Type.AssignableTo(want.Type)
}

var (
	// Exact accepts identical identities, and anything when want is Any.
	Exact Comparator = exact{}

	// Assignable additionally accepts identities assignable to want, which
	// covers interface requirements.
	Assignable Comparator = assignable{}
)

type comparatorBox struct{ c Comparator }

var current atomic.Pointer[comparatorBox]

func init() {
	current.Store(&comparatorBox{c: Exact})
}

// Use installs c as the process-wide comparator and returns the previous one.
func Use(c Comparator) Comparator {
	if c == nil {
		c = Exact
	}
	return current.Swap(&comparatorBox{c: c}).c
}

// Current returns the process-wide comparator.
func Current() Comparator {
	return current.Load().c
}

// ByName returns a built-in comparator by its configuration name.
func ByName(name string) (Comparator, bool) {
	switch name {
	case "", "exact":
		return Exact, true
	case "assignable":
		return Assignable, true
	default:
		return nil, false
	}
}
