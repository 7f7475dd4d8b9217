// Package options contains the program options.
package options

// Parameters contains input and output options.
type Parameters struct {
	Sections []string // section definitions in output order
	Includes []string // files to INCLUDE after the MEMORY block
	Output   string   // output file, stdout if empty
}

// Environment contains the options for reading the slot configuration
// from environment variables.
type Environment struct {
	Section string // name of the section to apply the configuration to
	Prefix  string // variable name prefix
}

// Flags contains behavior options.
type Flags struct {
	Debug bool
	Quiet bool
}

// Program options of the memory layout generator.
type Program struct {
	Parameters
	Environment
	Flags
}
