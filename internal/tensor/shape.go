package tensor

import "fmt"

// Shape holds tensor dimensions ordered (width, height, depth, size), with
// width fastest-varying in memory. Trailing dimensions may be omitted and
// read as 1, so Shape{4, 4, 2} is a 4x4x2 volume with batch size 1.
type Shape []int

// MaxDims is the dimensionality of the descriptor: width, height, depth
// and size (batch count).
const MaxDims = 4

// NumElements returns the total number of elements described by the shape.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has at most MaxDims dimensions, all > 0.
func (s Shape) Validate() error {
	if len(s) > MaxDims {
		return fmt.Errorf("shape has %d dimensions, at most %d supported: %w", len(s), MaxDims, ErrInvalidArgument)
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d is %d, must be > 0: %w", i, dim, ErrInvalidArgument)
		}
	}
	return nil
}

// Dim returns the i-th dimension, or 1 when the shape omits it.
func (s Shape) Dim(i int) int {
	if i < len(s) {
		return s[i]
	}
	return 1
}

// Width returns the first (fastest-varying) dimension.
func (s Shape) Width() int { return s.Dim(0) }

// Height returns the second dimension.
func (s Shape) Height() int { return s.Dim(1) }

// Depth returns the third dimension (channels).
func (s Shape) Depth() int { return s.Dim(2) }

// Size returns the fourth dimension (batch count).
func (s Shape) Size() int { return s.Dim(3) }

// Volume returns the number of elements in one batch item.
func (s Shape) Volume() int { return s.Width() * s.Height() * s.Depth() }

// Equal checks if two shapes describe the same extents, treating omitted
// trailing dimensions as 1.
func (s Shape) Equal(other Shape) bool {
	for i := 0; i < MaxDims; i++ {
		if s.Dim(i) != other.Dim(i) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as WxHxDxN.
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", s.Width(), s.Height(), s.Depth(), s.Size())
}
