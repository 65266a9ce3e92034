// Package tensor provides the tensor descriptor shared by all weft kernels:
// shape, numeric kind and device metadata, the closed error taxonomy, and
// the linear-algebra facade interface that compute backends implement.
package tensor

// Float is the constraint for element types the kernels compute with.
// The constraint is deliberately tilde-free so that []T values assert
// cleanly to []float32 / []float64 inside generic bridges.
type Float interface {
	float32 | float64
}

// DataType represents runtime numeric type information for tensors.
type DataType int

// Supported numeric kinds.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType for a generic element type.
func DataTypeOf[T Float]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported element type")
	}
}
