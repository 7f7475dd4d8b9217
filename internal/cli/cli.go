// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/ldmemory/internal/environment"
	"github.com/retroenv/ldmemory/internal/options"
	"github.com/retroenv/ldmemory/internal/section"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	if err != nil || len(opts.Sections) == 0 {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(flags, flags.Args()); err != nil {
		return opts, err
	}

	if opts.Quiet && opts.Debug {
		opts.Quiet = false
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	if e.msg == "" {
		return "invalid usage"
	}
	return e.msg
}

// ShowUsage prints the error message, if any, and the flag defaults to stderr.
func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Fprintf(os.Stderr, "%s\n\n", e.msg)
	}
	fmt.Fprintf(os.Stderr, "usage: ldmemory [options] -s %s [-s ...]\n\n", section.Format)
	e.flags.SetOutput(os.Stderr)
	e.flags.PrintDefaults()
	fmt.Fprintln(os.Stderr)
}

// validateArgs rejects positional arguments, all input is passed as flags.
func validateArgs(flags *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return &UsageError{
		flags: flags,
		msg:   fmt.Sprintf("Unexpected argument %s, sections have to be passed using -s", args[0]),
	}
}

// stringList collects the values of a flag that can be passed multiple times.
type stringList struct {
	values *[]string
}

func (l stringList) String() string {
	if l.values == nil {
		return ""
	}
	return strings.Join(*l.values, ", ")
}

func (l stringList) Set(value string) error {
	*l.values = append(*l.values, value)
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	sections := stringList{values: &opts.Sections}
	includes := stringList{values: &opts.Includes}
	sectionUsage := fmt.Sprintf("memory section %s, can be passed multiple times", section.Format)
	includeUsage := "file to INCLUDE after the MEMORY block, can be passed multiple times"

	flags.Var(sections, "s", sectionUsage)
	flags.Var(sections, "section", sectionUsage)
	flags.Var(includes, "i", includeUsage)
	flags.Var(includes, "include", includeUsage)
	flags.StringVar(&opts.Output, "o", "", "name of the output linker script, printed on console if no name given")
	flags.StringVar(&opts.Environment.Section, "env", "", "name of the section to apply the slot configuration from environment variables to")
	flags.StringVar(&opts.Prefix, "env-prefix", environment.DefaultPrefix, "prefix of the environment variables")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
