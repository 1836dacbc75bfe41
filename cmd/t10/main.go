// t10 CLI - exercises the value layer: call benchmarks and heap snapshots
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/t10/config"
)

func main() {
	configPath := flag.String("config", "", "Path to t10.toml (default: search upward from the working directory)")
	verbose := flag.Bool("v", false, "Verbose output (debug logging)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: t10 [options] <command> [command options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  bench [-n N]          Time prechecked native calls\n")
		fmt.Fprintf(os.Stderr, "  snapshot -label L     Build a demo heap and store a snapshot of it\n")
		fmt.Fprintf(os.Stderr, "  show -label L         Print a stored snapshot\n")
		fmt.Fprintf(os.Stderr, "  list                  List stored snapshots\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  t10 bench -n 5000000\n")
		fmt.Fprintf(os.Stderr, "  t10 -v snapshot -label before\n")
		fmt.Fprintf(os.Stderr, "  t10 show -label before\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verbosity := cfg.Log.Verbosity
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, cfg.LogPath())
	cfg.Apply()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "bench":
		err = runBench(cfg, args)
	case "snapshot":
		err = runSnapshot(cfg, args)
	case "show":
		err = runShow(cfg, args)
	case "list":
		err = runList(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}
