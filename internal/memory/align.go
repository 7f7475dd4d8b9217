package memory

import "golang.org/x/exp/constraints"

// alignUp rounds value up to the next multiple of alignment. The alignment
// does not need to be a power of two. It returns false if the aligned value
// does not fit into the type.
func alignUp[I constraints.Unsigned](value, alignment I) (I, bool) {
	rem := value % alignment
	if rem == 0 {
		return value, true
	}
	aligned := value + (alignment - rem)
	if aligned < value {
		return 0, false
	}
	return aligned, true
}

// alignDown rounds value down to the previous multiple of alignment.
func alignDown[I constraints.Unsigned](value, alignment I) I {
	return value - value%alignment
}
