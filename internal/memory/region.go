// Package memory models the regions of a linker script MEMORY block and
// renders them as linker script text.
package memory

import (
	"fmt"
	"math/bits"
	"strings"
)

// Region is a named, contiguous address range with optional access
// attributes. All transformations return a modified copy, a Region value is
// never changed after construction.
type Region struct {
	name     string
	attrs    string
	hasAttrs bool
	origin   uint64
	length   uint64
	pageSize uint64
}

// NewRegion returns a region without attributes and a page size of 1.
// Address ranges are not validated at construction time.
func NewRegion(name string, origin, length uint64) Region {
	return Region{
		name:     name,
		origin:   origin,
		length:   length,
		pageSize: 1,
	}
}

// Name returns the region name as it is written to the linker script.
func (r Region) Name() string { return r.name }

// Attributes returns the access attributes and whether they were set.
func (r Region) Attributes() (string, bool) { return r.attrs, r.hasAttrs }

// Origin returns the start address.
func (r Region) Origin() uint64 { return r.origin }

// Length returns the size in bytes.
func (r Region) Length() uint64 { return r.length }

// End returns the first address after the region.
func (r Region) End() uint64 { return r.origin + r.length }

// PageSize returns the alignment used by Slot.
func (r Region) PageSize() uint64 { return r.pageSize }

// Offset moves the start of the region by delta bytes and shortens it by
// the same amount, the end address stays unchanged.
func (r Region) Offset(delta uint64) (Region, error) {
	if delta > r.length {
		return Region{}, fmt.Errorf("%w: region '%s' offset 0x%X, length 0x%X",
			ErrInvalidOffset, r.name, delta, r.length)
	}
	origin, carry := bits.Add64(r.origin, delta, 0)
	if carry != 0 {
		return Region{}, fmt.Errorf("%w: region '%s' origin 0x%X plus offset 0x%X overflows",
			ErrInvalidOffset, r.name, r.origin, delta)
	}

	r.origin = origin
	r.length -= delta
	return r, nil
}

// WithAttributes sets the access attributes. The value is copied verbatim
// into the output.
func (r Region) WithAttributes(attrs string) Region {
	r.attrs = attrs
	r.hasAttrs = true
	return r
}

// WithPageSize sets the alignment granularity used when dividing the region
// into slots.
func (r Region) WithPageSize(pageSize uint64) (Region, error) {
	if pageSize == 0 {
		return Region{}, fmt.Errorf("%w: region '%s'", ErrInvalidPageSize, r.name)
	}
	r.pageSize = pageSize
	return r, nil
}

// Slot divides the page aligned part of the region into total slots of
// equal size and returns the slot with the given zero based index.
// Start and end of every slot are aligned to the page size. If the region
// is smaller than total pages, the returned slot has a length of zero.
func (r Region) Slot(index, total uint64) (Region, error) {
	if total == 0 || index >= total {
		return Region{}, fmt.Errorf("%w: region '%s' slot %d of %d",
			ErrInvalidSlotIndex, r.name, index, total)
	}
	if r.pageSize == 0 {
		return Region{}, fmt.Errorf("%w: region '%s'", ErrInvalidPageSize, r.name)
	}

	start, ok := alignUp(r.origin, r.pageSize)
	if !ok {
		return Region{}, fmt.Errorf("%w: region '%s' origin 0x%X can not be aligned to 0x%X",
			ErrRegionTooSmall, r.name, r.origin, r.pageSize)
	}
	end, carry := bits.Add64(r.origin, r.length, 0)
	if carry != 0 {
		return Region{}, fmt.Errorf("%w: region '%s' end address overflows",
			ErrRegionTooSmall, r.name)
	}
	end = alignDown(end, r.pageSize)
	if end < start {
		return Region{}, fmt.Errorf("%w: region '%s' has no complete page of size 0x%X",
			ErrRegionTooSmall, r.name, r.pageSize)
	}

	slotLength := alignDown((end-start)/total, r.pageSize)
	r.origin = start + index*slotLength
	r.length = slotLength
	return r, nil
}

// Text returns the region as a single line of a MEMORY block.
func (r Region) Text() string {
	var b strings.Builder
	r.writeText(&b)
	return b.String()
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return r.Text()
}

func (r Region) writeText(b *strings.Builder) {
	b.WriteString("    ")
	b.WriteString(r.name)
	b.WriteByte(' ')
	if r.hasAttrs {
		b.WriteByte('(')
		b.WriteString(r.attrs)
		b.WriteByte(')')
	}
	fmt.Fprintf(b, ": ORIGIN = 0x%X, LENGTH = 0x%X\n", r.origin, r.length)
}
