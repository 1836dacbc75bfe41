package ffi

import (
	"fmt"
	"reflect"

	"github.com/chazu/t10/vm"
)

var errorType = reflect.TypeFor[error]()

// Wrap binds any Go function through reflection. fn may return nothing, one
// value, an error, or a value and an error.
func Wrap(name string, fn any, opts ...Option) (*Function, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%s: %w: not a function", name, ErrSignature)
	}
	ft := rv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%s: %w: variadic", name, ErrSignature)
	}

	o := buildOptions(opts)
	params := make([]param, ft.NumIn())
	for i := range params {
		p, err := classifyParam(ft.In(i), i, o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		params[i] = p
	}

	hasValue, hasErr, err := classifyResults(ft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	f := &Function{name: name, params: params}
	f.invoke = func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		in := make([]reflect.Value, len(params))
		for i, p := range params {
			in[i] = p.reflectArg(args[i])
		}
		out := rv.Call(in)

		if hasErr {
			if e := out[len(out)-1]; !e.IsNil() {
				return vm.NullPtr(), e.Interface().(error)
			}
		}
		if !hasValue {
			return vm.NullPtr(), nil
		}
		return wrapReflect(h, out[0])
	}
	return f, nil
}

func classifyResults(ft reflect.Type) (hasValue, hasErr bool, err error) {
	switch ft.NumOut() {
	case 0:
		return false, false, nil
	case 1:
		if ft.Out(0) == errorType {
			return false, true, nil
		}
		return true, false, nil
	case 2:
		if ft.Out(1) != errorType {
			return false, false, fmt.Errorf("%w: second result must be error", ErrSignature)
		}
		return true, true, nil
	}
	return false, false, fmt.Errorf("%w: too many results", ErrSignature)
}

func (p param) reflectArg(a vm.Value) reflect.Value {
	switch p.mode {
	case modeScalar:
		switch p.kind {
		case vm.Int:
			return reflect.ValueOf(a.Int())
		case vm.Float:
			return reflect.ValueOf(a.Float())
		case vm.Char:
			return reflect.ValueOf(a.Char())
		case vm.Byte:
			return reflect.ValueOf(a.Byte())
		default:
			return reflect.ValueOf(a.Bool())
		}
	case modeRef, modeReadRef:
		if a.IsNull() {
			return reflect.Zero(p.typ)
		}
		return reflect.NewAt(p.elem, a.Object().Ptr())
	default:
		dst := reflect.New(p.typ)
		vm.MoveOutTo(a.Object(), dst.UnsafePointer(), p.typ)
		return dst.Elem()
	}
}

// wrapReflect turns a Go result into a Value: scalars inline, nil pointers
// and interfaces as the null pointer, everything else boxed on h.
func wrapReflect(h *vm.Heap, rv reflect.Value) (vm.Value, error) {
	if k, ok := scalarKinds[rv.Type()]; ok {
		switch k {
		case vm.Int:
			return vm.FromInt(rv.Int()), nil
		case vm.Float:
			return vm.FromFloat(rv.Float()), nil
		case vm.Char:
			return vm.FromChar(rune(rv.Int())), nil
		case vm.Byte:
			return vm.FromByte(byte(rv.Uint())), nil
		case vm.Bool:
			return vm.FromBool(rv.Bool()), nil
		}
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return vm.NullPtr(), nil
		}
	}
	if h == nil {
		return vm.NullPtr(), fmt.Errorf("%w: %v", ErrNoHeap, rv.Type())
	}
	return h.Alloc(vm.NewOwnedValue(rv)), nil
}
