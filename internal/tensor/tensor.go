package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor references a contiguous host buffer plus its shape, numeric kind
// and device binding. Element (x, y, z, n) of a volume tensor lives at flat
// index ((n*depth+z)*height+y)*width + x. The device field tags which
// backend operates on the tensor; memory is host-resident and staged to the
// device per call.
//
// A nil *Tensor, and the zero value, is the empty tensor: the sentinel for
// "this optional operand or output is not requested". Absence is a valid
// alternate code path, never an error by itself, but every consumer must
// test IsEmpty before touching the data.
type Tensor struct {
	data   []byte
	shape  Shape
	dtype  DataType
	device Device
}

// New allocates a zero-filled tensor with the given shape, numeric kind and
// device binding.
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("new tensor: %w", err)
	}
	n := shape.NumElements()
	byteSize := n * dtype.Size()
	if n < 0 || byteSize/dtype.Size() != n {
		return nil, fmt.Errorf("new tensor: %v elements of %s: %w", shape, dtype, ErrOutOfMemory)
	}
	return &Tensor{
		data:   make([]byte, byteSize),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromSlice allocates a tensor and copies values into it. The slice length
// must match the shape's element count.
func FromSlice[T Float](values []T, shape Shape, device Device) (*Tensor, error) {
	t, err := New(shape, DataTypeOf[T](), device)
	if err != nil {
		return nil, err
	}
	if len(values) != t.NumElements() {
		return nil, fmt.Errorf("from slice: %d values for shape %v: %w", len(values), shape, ErrInvalidArgument)
	}
	copy(DataOf[T](t), values)
	return t, nil
}

// IsEmpty reports whether the tensor is absent. Safe on a nil receiver.
func (t *Tensor) IsEmpty() bool {
	return t == nil || t.data == nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// DType returns the tensor's numeric kind.
func (t *Tensor) DType() DataType { return t.dtype }

// Device returns the tensor's device binding.
func (t *Tensor) Device() Device { return t.device }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int { return t.shape.NumElements() }

// ByteSize returns the buffer size in bytes.
func (t *Tensor) ByteSize() int { return len(t.data) }

// Width returns the first (fastest-varying) dimension.
func (t *Tensor) Width() int { return t.shape.Width() }

// Height returns the second dimension.
func (t *Tensor) Height() int { return t.shape.Height() }

// Depth returns the third dimension (channels).
func (t *Tensor) Depth() int { return t.shape.Depth() }

// Size returns the fourth dimension (batch count).
func (t *Tensor) Size() int { return t.shape.Size() }

// Volume returns the number of elements in one batch item.
func (t *Tensor) Volume() int { return t.shape.Volume() }

// Zero overwrites the whole buffer with zeros.
func (t *Tensor) Zero() { clear(t.data) }

// Item returns a view of batch item n: a tensor over the same memory whose
// shape drops the batch dimension. Writes through the view land in the
// parent's buffer.
func (t *Tensor) Item(n int) (*Tensor, error) {
	if t.IsEmpty() {
		return nil, fmt.Errorf("item of empty tensor: %w", ErrInvalidArgument)
	}
	if n < 0 || n >= t.Size() {
		return nil, fmt.Errorf("item %d of a %d-item batch: %w", n, t.Size(), ErrInvalidArgument)
	}
	stride := t.Volume() * t.dtype.Size()
	return &Tensor{
		data:   t.data[n*stride : (n+1)*stride],
		shape:  Shape{t.Width(), t.Height(), t.Depth()},
		dtype:  t.dtype,
		device: t.device,
	}, nil
}

// Data returns the raw byte buffer.
// WARNING: direct access to the underlying memory.
func (t *Tensor) Data() []byte { return t.data }

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (t *Tensor) AsFloat64() []float64 {
	if t.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// DataOf interprets the tensor's data as []T. It is the generic counterpart
// of AsFloat32/AsFloat64 for kernels instantiated per numeric kind, and
// panics on a dtype mismatch for the same reason those do: by the time a
// kernel runs, dispatch has already matched the tensor's dtype.
func DataOf[T Float](t *Tensor) []T {
	if t.dtype != DataTypeOf[T]() {
		panic(fmt.Sprintf("tensor dtype is %s, kernel wants %s", t.dtype, DataTypeOf[T]()))
	}
	if len(t.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&t.data[0])), t.NumElements())
}
