// Package generator builds the memory layout from the program options and
// writes the resulting linker script.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/ldmemory/internal/environment"
	"github.com/retroenv/ldmemory/internal/memory"
	"github.com/retroenv/ldmemory/internal/options"
	"github.com/retroenv/ldmemory/internal/section"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var ErrUnknownSection = errors.New("unknown section")

// Generator creates linker scripts.
type Generator struct {
	logger *log.Logger
	lookup environment.LookupFunc
}

// New creates a new generator. The lookup function is used to read the
// environment variables, usually os.LookupEnv.
func New(logger *log.Logger, lookup environment.LookupFunc) *Generator {
	return &Generator{
		logger: logger,
		lookup: lookup,
	}
}

// Layout parses all sections of the options and returns the memory layout.
// The environment configuration is applied to the first section with the
// configured name only.
func (g *Generator) Layout(opts options.Program) (memory.Layout, error) {
	var envCfg *environment.Config
	if opts.Environment.Section != "" {
		cfg, err := environment.Load(opts.Prefix, g.lookup)
		if err != nil {
			return memory.Layout{}, fmt.Errorf("reading environment: %w", err)
		}
		envCfg = &cfg
	}

	layout := memory.NewLayout()
	envApplied := false

	for _, def := range opts.Sections {
		region, err := section.Parse(def)
		if err != nil {
			return memory.Layout{}, fmt.Errorf("parsing section: %w", err)
		}

		if envCfg != nil && !envApplied && region.Name() == opts.Environment.Section {
			region, err = envCfg.Apply(region)
			if err != nil {
				return memory.Layout{}, err
			}
			envApplied = true
		}

		g.logger.Debug("Memory region",
			log.String("name", region.Name()),
			log.Hex("origin", region.Origin()),
			log.Hex("length", region.Length()))
		if region.Length() == 0 {
			g.logger.Warn("Memory region has zero length", log.String("name", region.Name()))
		}

		layout = layout.Add(region)
	}

	if envCfg != nil && !envApplied {
		return memory.Layout{}, fmt.Errorf("%w '%s' for environment configuration", ErrUnknownSection, opts.Environment.Section)
	}

	for _, name := range layout.DuplicateNames() {
		g.logger.Warn("Duplicate memory region name", log.String("name", name))
	}

	return layout.WithIncludes(opts.Includes...), nil
}

// Execute builds the layout and writes it to the output file, or to stdout
// if no output file is set. Nothing is written if building the layout fails.
// Console output, including rebuild directives, is written before the
// output file, a failing console write leaves no output file behind.
func (g *Generator) Execute(ctx context.Context, opts options.Program, stdout io.Writer) error {
	layout, err := g.Layout(opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := g.writeRebuildDirectives(&buf, opts); err != nil {
		return err
	}
	if opts.Output == "" {
		if _, err := layout.WriteTo(&buf); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.Output != "" {
		if err := layout.WriteFile(opts.Output); err != nil {
			return err
		}
		g.logger.Info("Linker script written",
			log.String("file", opts.Output),
			log.Int("regions", layout.Len()))
	}
	return nil
}

// writeRebuildDirectives declares the environment variables to cargo if the
// tool runs from a build script. Directives are only written when the
// linker script goes to a file, stdout would mix them into the script.
func (g *Generator) writeRebuildDirectives(w io.Writer, opts options.Program) error {
	if opts.Environment.Section == "" || !environment.InBuildScript(g.lookup) {
		return nil
	}
	if opts.Output == "" {
		g.logger.Debug("Skipping rebuild directives for console output")
		return nil
	}

	cfg := environment.New(opts.Prefix)
	if err := cfg.DeclareRebuild(w); err != nil {
		return fmt.Errorf("declaring rebuild variables: %w", err)
	}
	return nil
}

// PrintBanner logs the application version information.
func PrintBanner(logger *log.Logger, version, commit, date string) {
	logger.Debug("ldmemory", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Debug("Build", log.String("date", date))
	}
}
