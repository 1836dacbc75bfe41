// Package ffi binds Go functions as native functions callable with vm.Value
// arguments.
//
// A Function is checked once by the dispatcher (Check) and then invoked on
// the prechecked fast path (CallPrechecked), which reads inline scalars
// directly and reaches heap arguments through vm.Ref without repeating any
// type or ownership test.
//
// Parameter shapes:
//
//	int64, float64, rune, byte, bool   inline scalar of the matching kind
//	*T                                 reference to a live T (mutable unless ReadOnly)
//	any other T                        moved out of an Owned container
package ffi

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tliron/commonlog"

	"github.com/chazu/t10/tyck"
	"github.com/chazu/t10/vm"
)

var log = commonlog.GetLogger("t10.ffi")

var (
	// ErrArity indicates the argument count differs from the parameter count.
	ErrArity = errors.New("wrong number of arguments")
	// ErrType indicates an argument of the wrong kind, identity or storage shape.
	ErrType = errors.New("argument type mismatch")
	// ErrNull indicates a null argument for a parameter that does not accept one.
	ErrNull = errors.New("null argument")
	// ErrOwnership indicates an argument whose state, or aliasing with another
	// argument, forbids the use its parameter makes of it.
	ErrOwnership = errors.New("argument ownership does not permit this use")
	// ErrSignature indicates a Go function that cannot be bound.
	ErrSignature = errors.New("unsupported native signature")
	// ErrNoHeap indicates a boxed result with no heap to allocate it on.
	ErrNoHeap = errors.New("boxed result needs a heap")
)

type mode uint8

const (
	modeScalar mode = iota
	modeRef
	modeReadRef
	modeMove
)

func (m mode) String() string {
	switch m {
	case modeScalar:
		return "scalar"
	case modeRef:
		return "ref"
	case modeReadRef:
		return "read-only ref"
	case modeMove:
		return "move"
	}
	return "?"
}

type param struct {
	mode     mode
	kind     vm.ValueType // modeScalar only
	typ      reflect.Type // Go parameter type
	elem     reflect.Type // storage the argument must hold
	want     tyck.Info
	nullable bool
}

// Option adjusts how a Function treats its parameters.
type Option func(*options)

type options struct {
	readOnly map[int]bool
	nullable map[int]bool
}

// ReadOnly marks pointer parameter i as a read-only reference, which also
// accepts SharedWithHost arguments.
func ReadOnly(i int) Option {
	return func(o *options) { o.readOnly[i] = true }
}

// Nullable lets pointer parameter i receive the null pointer, passed as nil.
func Nullable(i int) Option {
	return func(o *options) { o.nullable[i] = true }
}

func buildOptions(opts []Option) options {
	o := options{readOnly: map[int]bool{}, nullable: map[int]bool{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var scalarKinds = map[reflect.Type]vm.ValueType{
	reflect.TypeFor[int64]():   vm.Int,
	reflect.TypeFor[float64](): vm.Float,
	reflect.TypeFor[rune]():    vm.Char,
	reflect.TypeFor[byte]():    vm.Byte,
	reflect.TypeFor[bool]():    vm.Bool,
}

func classifyParam(t reflect.Type, i int, o options) (param, error) {
	if k, ok := scalarKinds[t]; ok {
		if o.readOnly[i] || o.nullable[i] {
			return param{}, fmt.Errorf("%w: parameter %d is a scalar", ErrSignature, i)
		}
		return param{mode: modeScalar, kind: k, typ: t, elem: t, want: tyck.OfType(t)}, nil
	}
	if t.Kind() == reflect.Pointer {
		p := param{mode: modeRef, typ: t, elem: t.Elem(), want: tyck.OfType(t.Elem()), nullable: o.nullable[i]}
		if o.readOnly[i] {
			p.mode = modeReadRef
		}
		if p.nullable {
			p.want = p.want.OrNull()
		}
		return p, nil
	}
	if o.readOnly[i] || o.nullable[i] {
		return param{}, fmt.Errorf("%w: parameter %d of type %v is moved", ErrSignature, i, t)
	}
	return param{mode: modeMove, typ: t, elem: t, want: tyck.OfType(t)}, nil
}

// Function is a native function ready for dispatch.
type Function struct {
	name   string
	params []param
	invoke func(h *vm.Heap, args []vm.Value) (vm.Value, error)
}

// Name returns the function's name.
func (f *Function) Name() string {
	return f.name
}

// Arity returns the number of parameters.
func (f *Function) Arity() int {
	return len(f.params)
}

// Params describes the required type of each parameter.
func (f *Function) Params() []tyck.Info {
	infos := make([]tyck.Info, len(f.params))
	for i, p := range f.params {
		infos[i] = p.want
	}
	return infos
}

// Check verifies that args may be passed to f: arity, scalar kinds,
// nullness, declared identity (through the tyck comparator), storage shape,
// ownership state, and that no moved object is passed twice. A nil error
// means CallPrechecked is safe.
func (f *Function) Check(args []vm.Value) error {
	if len(args) != len(f.params) {
		return fmt.Errorf("%s: %w: have %d, want %d", f.name, ErrArity, len(args), len(f.params))
	}
	for i, p := range f.params {
		if err := p.check(args[i]); err != nil {
			return fmt.Errorf("%s: argument %d: %w", f.name, i, err)
		}
	}
	// A moved object must not appear anywhere else in the call: the move
	// runs first and leaves every other use of it dangling.
	for i, p := range f.params {
		if p.mode != modeMove {
			continue
		}
		for j, a := range args {
			if j != i && a == args[i] {
				return fmt.Errorf("%s: argument %d: %w: moved object also passed as argument %d",
					f.name, i, ErrOwnership, j)
			}
		}
	}
	return nil
}

func (p param) check(a vm.Value) error {
	if p.mode == modeScalar {
		if !a.IsValue() {
			return fmt.Errorf("%w: have object, want %v", ErrType, p.kind)
		}
		if a.Kind() != p.kind {
			return fmt.Errorf("%w: have %v, want %v", ErrType, a.Kind(), p.kind)
		}
		if a.IsNull() {
			return fmt.Errorf("%w: null %v", ErrNull, p.kind)
		}
		return nil
	}

	if a.IsValue() {
		return fmt.Errorf("%w: have scalar %v, want %v", ErrType, a.TypeID(), p.typ)
	}
	if a.IsNull() {
		if p.nullable {
			return nil
		}
		return fmt.Errorf("%w: want %v", ErrNull, p.typ)
	}

	obj := a.Object()
	if !obj.Tyck(p.want) {
		return fmt.Errorf("%w: have %v, want %v", ErrType, obj.TyckInfo(), p.want)
	}
	if obj.StorageType() != p.elem {
		return fmt.Errorf("%w: storage is %v, want %v", ErrType, obj.StorageType(), p.elem)
	}

	st := obj.Ownership()
	switch p.mode {
	case modeReadRef:
		if !st.Live() {
			return fmt.Errorf("%w: %s", ErrOwnership, st)
		}
	case modeRef:
		if st != vm.Owned && st != vm.MutSharedWithHost {
			return fmt.Errorf("%w: %s cannot be borrowed mutably", ErrOwnership, st)
		}
	case modeMove:
		if st != vm.Owned {
			return fmt.Errorf("%w: %s cannot be moved", ErrOwnership, st)
		}
		if obj.TypeID() != p.typ {
			return fmt.Errorf("%w: declared %v, moving %v", ErrType, obj.TypeID(), p.typ)
		}
	}
	return nil
}

// CallPrechecked invokes f without verifying args. The caller must have had
// Check succeed for exactly these arguments. h receives boxed results and
// may be nil when f only returns scalars.
func (f *Function) CallPrechecked(h *vm.Heap, args []vm.Value) (vm.Value, error) {
	return f.invoke(h, args)
}

// Call is Check followed by CallPrechecked.
func (f *Function) Call(h *vm.Heap, args []vm.Value) (vm.Value, error) {
	if err := f.Check(args); err != nil {
		log.Debugf("rejected call: %v", err)
		return vm.NullPtr(), err
	}
	return f.invoke(h, args)
}
