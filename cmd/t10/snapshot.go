package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chazu/t10/config"
	"github.com/chazu/t10/inspect"
	"github.com/chazu/t10/vm"
	"github.com/chazu/t10/wire"
)

type point struct {
	X, Y int32
}

// demoHeap fills a heap with one container in each storable state.
func demoHeap() (*vm.Heap, []vm.Value) {
	h := vm.NewHeap()
	host := point{X: 3, Y: 4}

	owned := h.Alloc(vm.NewOwned(point{X: 1, Y: 2}))
	shared := h.Alloc(vm.NewShared(&host))
	mutShared := h.Alloc(vm.NewMutShared(&host))
	moved := h.Alloc(vm.NewOwned(point{X: 5, Y: 6}))
	_ = vm.Take[point](moved)
	dropped := h.Alloc(vm.NewOwned([]byte("scratch")))
	dropped.Object().Drop()

	values := []vm.Value{
		vm.FromInt(42),
		vm.FromFloat(2.5),
		vm.FromChar('t'),
		vm.FromByte(0x10),
		vm.FromBool(true),
		vm.NullValue(vm.Int),
		vm.NullPtr(),
		owned, shared, mutShared, moved, dropped,
	}
	return h, values
}

func labelFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	label := fs.String("label", "", "Snapshot label")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *label == "" {
		return "", fmt.Errorf("%s: -label is required", name)
	}
	return *label, nil
}

func runSnapshot(cfg *config.Config, args []string) error {
	label, err := labelFlag("snapshot", args)
	if err != nil {
		return err
	}

	store, err := inspect.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	h, values := demoHeap()
	snap := wire.Capture(h.ID(), values)
	if err := store.Save(label, snap); err != nil {
		return err
	}
	fmt.Printf("Stored %d values from heap %s as %q in %s\n", len(snap.Values), h.ID(), label, store.Path())
	return nil
}

func runShow(cfg *config.Config, args []string) error {
	label, err := labelFlag("show", args)
	if err != nil {
		return err
	}

	store, err := inspect.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(label)
	if errors.Is(err, inspect.ErrSnapshotNotFound) {
		return fmt.Errorf("no snapshot %q in %s", label, store.Path())
	}
	if err != nil {
		return err
	}
	inspect.Print(os.Stdout, snap)
	return nil
}

func runList(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("list: unexpected arguments %v", args)
	}
	store, err := inspect.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List()
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Printf("%-20s %s  %s\n", s.Label, s.TakenAt.Format(time.RFC3339), s.Heap)
	}
	return nil
}
