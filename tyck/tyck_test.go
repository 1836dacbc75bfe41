package tyck

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

type widget struct{ n int }

func (w widget) String() string { return fmt.Sprint(w.n) }

func TestExact(t *testing.T) {
	tests := []struct {
		name       string
		have, want Info
		ok         bool
	}{
		{"same", Of[int64](), Of[int64](), true},
		{"different", Of[int64](), Of[float64](), false},
		{"any accepts", Of[widget](), Any, true},
		{"zero have", Info{}, Of[int64](), false},
		{"zero want", Of[int64](), Info{}, false},
		{"interface needs exact", Of[widget](), Of[fmt.Stringer](), false},
	}
	for _, tt := range tests {
		if got := Exact.Compatible(tt.have, tt.want); got != tt.ok {
			t.Errorf("%s: Exact.Compatible = %v, want %v", tt.name, got, tt.ok)
		}
	}
}

func TestAssignable(t *testing.T) {
	if !Assignable.Compatible(Of[widget](), Of[fmt.Stringer]()) {
		t.Error("widget should satisfy fmt.Stringer")
	}
	if Assignable.Compatible(Of[int64](), Of[fmt.Stringer]()) {
		t.Error("int64 does not satisfy fmt.Stringer")
	}
	if Assignable.Compatible(Info{}, Any) {
		t.Error("zero Info is compatible with nothing")
	}
}

func TestUseAndCurrent(t *testing.T) {
	never := ComparatorFunc(func(have, want Info) bool { return false })
	prev := Use(never)
	defer Use(prev)

	if Current().Compatible(Of[int64](), Of[int64]()) {
		t.Error("installed comparator not used")
	}
	if back := Use(nil); back == nil {
		t.Error("Use should return the previous comparator")
	}
	if !Current().Compatible(Of[int64](), Of[int64]()) {
		t.Error("Use(nil) should restore Exact")
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "exact", "assignable"} {
		if _, ok := ByName(name); !ok {
			t.Errorf("ByName(%q) not found", name)
		}
	}
	if _, ok := ByName("structural"); ok {
		t.Error("unknown comparator should not resolve")
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Of[int64](), "int64"},
		{Of[int64]().OrNull(), "int64?"},
		{Any, "any?"},
		{Info{}, "<none>"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Register(reflect.TypeFor[int64]())
	b := r.Register(reflect.TypeFor[widget]())
	if a == 0 || b == 0 || a == b {
		t.Fatalf("ids = %d, %d", a, b)
	}
	if again := r.Register(reflect.TypeFor[int64]()); again != a {
		t.Errorf("re-register = %d, want %d", again, a)
	}
	if info := r.Lookup(b); info == nil || info.Type != reflect.TypeFor[widget]() || info.Name != "tyck.widget" {
		t.Errorf("Lookup(%d) = %+v", b, info)
	}
	if r.LookupByType(reflect.TypeFor[string]()) != nil {
		t.Error("unregistered type should not resolve")
	}
	if id := r.Register(AnyType()); r.Lookup(id).Name != "any" {
		t.Errorf("any registered as %q", r.Lookup(id).Name)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d", r.Count())
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	types := []reflect.Type{
		reflect.TypeFor[int8](), reflect.TypeFor[int16](), reflect.TypeFor[int32](), reflect.TypeFor[int64](),
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ty := range types {
				r.Register(ty)
			}
		}()
	}
	wg.Wait()
	if r.Count() != len(types) {
		t.Errorf("Count() = %d, want %d", r.Count(), len(types))
	}
}
