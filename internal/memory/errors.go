package memory

import "errors"

var (
	ErrInvalidOffset    = errors.New("offset exceeds region length")
	ErrInvalidPageSize  = errors.New("page size must not be zero")
	ErrInvalidSlotIndex = errors.New("slot index out of range")
	ErrRegionTooSmall   = errors.New("region too small for page alignment")
)
