// Package section parses memory region definitions given on the command line.
package section

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/ldmemory/internal/expression"
	"github.com/retroenv/ldmemory/internal/memory"
)

// Format describes the accepted syntax.
const Format = "<NAME>[ (attrs)]:<START>:<SIZE>[:<OFFSET>]"

var ErrInvalidSpec = errors.New("invalid section definition")

// Spec is a section definition with its fields split but not yet evaluated.
type Spec struct {
	Name     string
	Attrs    string
	HasAttrs bool

	Start  string
	Size   string
	Offset string // empty if not given
}

// Split splits a section definition into its fields.
func Split(s string) (Spec, error) {
	fields := strings.Split(s, ":")
	if len(fields) < 3 || len(fields) > 4 {
		return Spec{}, fmt.Errorf("%w '%s', expected \"%s\"", ErrInvalidSpec, s, Format)
	}

	var spec Spec
	name := strings.TrimSpace(fields[0])
	if open := strings.IndexByte(name, '('); open >= 0 {
		if !strings.HasSuffix(name, ")") {
			return Spec{}, fmt.Errorf("%w '%s': unterminated attributes", ErrInvalidSpec, s)
		}
		spec.Attrs = name[open+1 : len(name)-1]
		spec.HasAttrs = true
		name = strings.TrimSpace(name[:open])
	}
	if name == "" {
		return Spec{}, fmt.Errorf("%w '%s': missing name", ErrInvalidSpec, s)
	}
	spec.Name = name

	spec.Start = fields[1]
	spec.Size = fields[2]
	if len(fields) == 4 {
		spec.Offset = fields[3]
	}
	return spec, nil
}

// Region evaluates the numeric fields and returns the resulting region.
func (s Spec) Region() (memory.Region, error) {
	start, err := expression.Evaluate(s.Start)
	if err != nil {
		return memory.Region{}, fmt.Errorf("section '%s' start: %w", s.Name, err)
	}
	size, err := expression.Evaluate(s.Size)
	if err != nil {
		return memory.Region{}, fmt.Errorf("section '%s' size: %w", s.Name, err)
	}
	offset, err := expression.Evaluate(s.Offset)
	if err != nil {
		return memory.Region{}, fmt.Errorf("section '%s' offset: %w", s.Name, err)
	}

	region := memory.NewRegion(s.Name, start, size)
	if s.HasAttrs {
		region = region.WithAttributes(s.Attrs)
	}
	if offset == 0 {
		return region, nil
	}
	region, err = region.Offset(offset)
	if err != nil {
		return memory.Region{}, fmt.Errorf("section '%s': %w", s.Name, err)
	}
	return region, nil
}

// Parse parses a section definition into a region.
func Parse(s string) (memory.Region, error) {
	spec, err := Split(s)
	if err != nil {
		return memory.Region{}, err
	}
	return spec.Region()
}
