// Package environment reads the slot configuration of a memory region from
// environment variables, for use from build scripts.
//
// The following variables are evaluated, each prefixed by the configured
// prefix and an underscore:
//
//	OFFSET       offset applied to the whole region (default 0)
//	PAGESIZE     page size that slot boundaries are aligned to (default 1)
//	NUM_SLOTS    number of slots to divide the region into (default 2)
//	SLOT         index of the slot to select, enables slot division
//	SLOT_OFFSET  offset applied to the selected slot (default 0)
package environment

import (
	"fmt"
	"io"

	"github.com/retroenv/ldmemory/internal/expression"
	"github.com/retroenv/ldmemory/internal/memory"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "LDMEMORY"

const (
	offsetVar     = "OFFSET"
	pageSizeVar   = "PAGESIZE"
	numSlotsVar   = "NUM_SLOTS"
	slotVar       = "SLOT"
	slotOffsetVar = "SLOT_OFFSET"
)

// LookupFunc returns the value of a variable and whether it is set.
// os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Config contains the region options read from the environment.
type Config struct {
	Prefix     string
	Offset     uint64
	PageSize   uint64
	NumSlots   uint64
	Slot       *uint64 // nil disables slot division
	SlotOffset uint64
}

// New returns a config with default values for the given prefix.
func New(prefix string) Config {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Config{
		Prefix:   prefix,
		PageSize: 1,
		NumSlots: 2,
	}
}

// Load returns the config for the given prefix, reading the variables using
// the passed lookup function.
func Load(prefix string, lookup LookupFunc) (Config, error) {
	cfg := New(prefix)

	values := []struct {
		name   string
		target *uint64
	}{
		{offsetVar, &cfg.Offset},
		{pageSizeVar, &cfg.PageSize},
		{numSlotsVar, &cfg.NumSlots},
		{slotOffsetVar, &cfg.SlotOffset},
	}
	for _, v := range values {
		if err := cfg.read(lookup, v.name, v.target); err != nil {
			return Config{}, err
		}
	}

	if _, ok := lookup(cfg.Variable(slotVar)); ok {
		var slot uint64
		if err := cfg.read(lookup, slotVar, &slot); err != nil {
			return Config{}, err
		}
		cfg.Slot = &slot
	}
	return cfg, nil
}

func (c Config) read(lookup LookupFunc, name string, target *uint64) error {
	key := c.Variable(name)
	s, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := expression.Evaluate(s)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*target = value
	return nil
}

// Variable returns the full name of a variable including the prefix.
func (c Config) Variable(name string) string {
	return c.Prefix + "_" + name
}

// Variables returns the names of all variables that the config depends on.
func (c Config) Variables() []string {
	return []string{
		c.Variable(offsetVar),
		c.Variable(numSlotsVar),
		c.Variable(slotVar),
		c.Variable(slotOffsetVar),
		c.Variable(pageSizeVar),
	}
}

// Apply applies the config to the region in the order
// offset, page size, slot selection and slot offset.
func (c Config) Apply(region memory.Region) (memory.Region, error) {
	region, err := region.Offset(c.Offset)
	if err != nil {
		return memory.Region{}, fmt.Errorf("applying %s: %w", c.Variable(offsetVar), err)
	}
	region, err = region.WithPageSize(c.PageSize)
	if err != nil {
		return memory.Region{}, fmt.Errorf("applying %s: %w", c.Variable(pageSizeVar), err)
	}
	if c.Slot == nil {
		return region, nil
	}

	region, err = region.Slot(*c.Slot, c.NumSlots)
	if err != nil {
		return memory.Region{}, fmt.Errorf("applying %s: %w", c.Variable(slotVar), err)
	}
	region, err = region.Offset(c.SlotOffset)
	if err != nil {
		return memory.Region{}, fmt.Errorf("applying %s: %w", c.Variable(slotOffsetVar), err)
	}
	return region, nil
}

// InBuildScript reports whether the process runs as part of a cargo build
// script, which is assumed if both CARGO and OUT_DIR are set.
func InBuildScript(lookup LookupFunc) bool {
	_, cargo := lookup("CARGO")
	_, outDir := lookup("OUT_DIR")
	return cargo && outDir
}

// DeclareRebuild writes the directives that tell cargo to rerun the build
// script when one of the variables changes.
func (c Config) DeclareRebuild(w io.Writer) error {
	for _, name := range c.Variables() {
		if _, err := fmt.Fprintf(w, "cargo:rerun-if-env-changed=%s\n", name); err != nil {
			return fmt.Errorf("writing rebuild directive: %w", err)
		}
	}
	return nil
}
