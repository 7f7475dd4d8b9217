package memory

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/retroenv/retrogolib/set"
)

// Layout is an ordered collection of regions that is rendered as one
// MEMORY block, optionally followed by INCLUDE directives.
type Layout struct {
	regions  []Region
	includes []string
}

// NewLayout returns an empty layout.
func NewLayout() Layout {
	return Layout{}
}

// Add returns a new layout with the region appended. The receiver is not
// modified and does not share its backing array with the result.
func (l Layout) Add(region Region) Layout {
	l.regions = append(slices.Clip(l.regions), region)
	return l
}

// WithIncludes returns a new layout that renders an INCLUDE line for every
// given path after the MEMORY block.
func (l Layout) WithIncludes(paths ...string) Layout {
	l.includes = append(slices.Clip(l.includes), paths...)
	return l
}

// Regions returns a copy of the regions in insertion order.
func (l Layout) Regions() []Region {
	return slices.Clone(l.regions)
}

// Includes returns a copy of the include paths in insertion order.
func (l Layout) Includes() []string {
	return slices.Clone(l.includes)
}

// Len returns the number of regions.
func (l Layout) Len() int {
	return len(l.regions)
}

// DuplicateNames returns the region names that are used more than once,
// in the order in which the first duplicate appears.
// Duplicates are rendered as is.
func (l Layout) DuplicateNames() []string {
	seen := set.New[string]()
	reported := set.New[string]()
	var duplicates []string

	for _, region := range l.regions {
		if !seen.Contains(region.name) {
			seen.Add(region.name)
			continue
		}
		if reported.Contains(region.name) {
			continue
		}
		reported.Add(region.name)
		duplicates = append(duplicates, region.name)
	}
	return duplicates
}

// Text renders the layout as linker script text.
func (l Layout) Text() string {
	var b strings.Builder
	b.WriteString("MEMORY\n{\n")
	for _, region := range l.regions {
		region.writeText(&b)
	}
	b.WriteString("}\n")

	for _, include := range l.includes {
		b.WriteString("INCLUDE ")
		b.WriteString(include)
		b.WriteByte('\n')
	}
	return b.String()
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return l.Text()
}

// WriteTo implements io.WriterTo.
func (l Layout) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.Text())
	if err != nil {
		return int64(n), fmt.Errorf("writing memory layout: %w", err)
	}
	return int64(n), nil
}

// WriteFile writes the rendered layout to the file with the given name.
func (l Layout) WriteFile(name string) error {
	if err := os.WriteFile(name, []byte(l.Text()), 0o644); err != nil {
		return fmt.Errorf("writing file '%s': %w", name, err)
	}
	return nil
}
