// Package main implements a generator for linker script MEMORY blocks
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/ldmemory/internal/cli"
	"github.com/retroenv/ldmemory/internal/config"
	"github.com/retroenv/ldmemory/internal/generator"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Flags)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			generator.PrintBanner(logger, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Flags)
	generator.PrintBanner(logger, version, commit, date)

	gen := generator.New(logger, os.LookupEnv)
	if err := gen.Execute(ctx, opts, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
		} else {
			logger.Error("Generating linker script failed", log.Err(err))
		}
		os.Exit(1)
	}
}
