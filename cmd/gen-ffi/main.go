package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"github.com/seitarof/gen-ffi/internal/cli"
	"github.com/seitarof/gen-ffi/internal/collector"
	"github.com/seitarof/gen-ffi/internal/generator"
	"github.com/seitarof/gen-ffi/internal/logger"
	"github.com/seitarof/gen-ffi/internal/parser"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "gen-ffi:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		return 2
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		return 0
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen-ffi:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := parser.NewClang(parser.WithBinary(cfg.Clang))
	c := collector.New()
	f := generator.NewSourceFormatter()
	w := generator.NewFileWriter(cfg.Backup)
	g := generator.New(f, w)

	runner := cli.NewRunner(p, c, g, log)
	if err := runner.Run(ctx, cfg); err != nil {
		kv := []any{"error", err.Error()}
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			kv = append(kv, "hints", hints)
		}
		log.Errorw("generation failed", kv...)
		return 1
	}
	return 0
}
