package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/chazu/t10/config"
	"github.com/chazu/t10/ffi"
	"github.com/chazu/t10/vm"
)

type s32 struct {
	V int32
}

func bar(x *s32, y *s32) int64 {
	return int64(x.V + y.V)
}

func baz(x, y int64) int64 {
	return x + y
}

func runBench(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	n := fs.Int("n", cfg.Bench.Iterations, "Calls per benchmark")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("bench: -n must be positive, got %d", *n)
	}

	refFn, err := ffi.Bind2("bar", bar, ffi.ReadOnly(1))
	if err != nil {
		return err
	}
	scalarFn, err := ffi.Bind2("baz", baz)
	if err != nil {
		return err
	}

	h := vm.NewHeap()
	v1 := h.Alloc(vm.NewOwned(s32{V: 0}))
	v2 := h.Alloc(vm.NewOwned(s32{V: 4}))
	defer h.Free(v1)
	defer h.Free(v2)

	refArgs := []vm.Value{v1, v2}
	if err := refFn.Check(refArgs); err != nil {
		return err
	}
	elapsed, err := timeCalls(*n, func(int) error {
		_, err := refFn.CallPrechecked(nil, refArgs)
		return err
	})
	if err != nil {
		return err
	}
	report("ref call (*s32, *s32) -> int64", *n, elapsed)

	elapsed, err = timeCalls(*n, func(i int) error {
		_, err := scalarFn.CallPrechecked(nil, []vm.Value{vm.FromInt(int64(i)), vm.FromInt(int64(i))})
		return err
	})
	if err != nil {
		return err
	}
	report("scalar call (int64, int64) -> int64", *n, elapsed)

	elapsed, err = timeCalls(*n, func(int) error {
		_, err := refFn.Call(nil, refArgs)
		return err
	})
	if err != nil {
		return err
	}
	report("checked ref call", *n, elapsed)
	return nil
}

func timeCalls(n int, call func(i int) error) (time.Duration, error) {
	start := time.Now()
	for i := range n {
		if err := call(i); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func report(name string, n int, d time.Duration) {
	fmt.Printf("%-38s %10d calls  %8.2f ns/call\n", name, n, float64(d.Nanoseconds())/float64(n))
}
