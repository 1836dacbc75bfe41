package ffi

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/chazu/t10/vm"
)

// Bind1, Bind2 and Bind3 bind a Go function with a fixed signature. Unlike
// Wrap they invoke fn directly, without reflect.Call, so the prechecked path
// costs little more than the call itself.
func Bind1[A, R any](name string, fn func(A) R, opts ...Option) (*Function, error) {
	ps, rk, err := bindParams(name, opts, reflect.TypeFor[A](), reflect.TypeFor[R]())
	if err != nil {
		return nil, err
	}
	pa := ps[0]
	f := &Function{name: name, params: ps}
	f.invoke = func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return wrapResult(rk, h, fn(arg[A](pa, args[0])))
	}
	return f, nil
}

func Bind2[A, B, R any](name string, fn func(A, B) R, opts ...Option) (*Function, error) {
	ps, rk, err := bindParams(name, opts, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[R]())
	if err != nil {
		return nil, err
	}
	pa, pb := ps[0], ps[1]
	f := &Function{name: name, params: ps}
	f.invoke = func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return wrapResult(rk, h, fn(arg[A](pa, args[0]), arg[B](pb, args[1])))
	}
	return f, nil
}

func Bind3[A, B, C, R any](name string, fn func(A, B, C) R, opts ...Option) (*Function, error) {
	ps, rk, err := bindParams(name, opts,
		reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[R]())
	if err != nil {
		return nil, err
	}
	pa, pb, pc := ps[0], ps[1], ps[2]
	f := &Function{name: name, params: ps}
	f.invoke = func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return wrapResult(rk, h, fn(arg[A](pa, args[0]), arg[B](pb, args[1]), arg[C](pc, args[2])))
	}
	return f, nil
}

// resultKind is how a bound function's result becomes a Value.
type resultKind struct {
	scalar  vm.ValueType // 0 when boxed
	nilable bool
}

// bindParams classifies the parameter types followed by the result type.
func bindParams(name string, opts []Option, types ...reflect.Type) ([]param, resultKind, error) {
	o := buildOptions(opts)
	in, out := types[:len(types)-1], types[len(types)-1]

	ps := make([]param, len(in))
	for i, t := range in {
		p, err := classifyParam(t, i, o)
		if err != nil {
			return nil, resultKind{}, fmt.Errorf("%s: %w", name, err)
		}
		ps[i] = p
	}

	if out == errorType {
		return nil, resultKind{}, fmt.Errorf("%s: %w: use Wrap for error results", name, ErrSignature)
	}
	var rk resultKind
	if k, ok := scalarKinds[out]; ok {
		rk.scalar = k
	}
	switch out.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		rk.nilable = true
	}
	return ps, rk, nil
}

// arg extracts a parameter of type T from a prechecked argument. For scalar
// parameters T is exactly the Go type of the kind, so the payload can be
// written through an unsafe view of the result.
func arg[T any](p param, v vm.Value) T {
	var out T
	dst := unsafe.Pointer(&out)
	switch p.mode {
	case modeScalar:
		switch p.kind {
		case vm.Int:
			*(*int64)(dst) = v.Int()
		case vm.Float:
			*(*float64)(dst) = v.Float()
		case vm.Char:
			*(*rune)(dst) = v.Char()
		case vm.Byte:
			*(*byte)(dst) = v.Byte()
		case vm.Bool:
			*(*bool)(dst) = v.Bool()
		}
	case modeRef, modeReadRef:
		if !v.IsNull() {
			*(*unsafe.Pointer)(dst) = v.Object().Ptr()
		}
	case modeMove:
		vm.MoveOutTo(v.Object(), dst, p.typ)
	}
	return out
}

func wrapResult[R any](rk resultKind, h *vm.Heap, r R) (vm.Value, error) {
	src := unsafe.Pointer(&r)
	switch rk.scalar {
	case vm.Int:
		return vm.FromInt(*(*int64)(src)), nil
	case vm.Float:
		return vm.FromFloat(*(*float64)(src)), nil
	case vm.Char:
		return vm.FromChar(*(*rune)(src)), nil
	case vm.Byte:
		return vm.FromByte(*(*byte)(src)), nil
	case vm.Bool:
		return vm.FromBool(*(*bool)(src)), nil
	}
	if rk.nilable && reflect.ValueOf(&r).Elem().IsNil() {
		return vm.NullPtr(), nil
	}
	if h == nil {
		return vm.NullPtr(), fmt.Errorf("%w: %v", ErrNoHeap, reflect.TypeFor[R]())
	}
	return h.Alloc(vm.NewOwned(r)), nil
}
