// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/tensor"
)

// Type aliases for the public API.

// Float is the constraint for element types the kernels compute with.
type Float = tensor.Float

// DataType represents runtime numeric type information for tensors.
type DataType = tensor.DataType

// Supported numeric kinds.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the compute device a tensor is bound to.
type Device = tensor.Device

// Supported compute devices. CPU and WebGPU have backends in this
// repository; dispatching to any other device reports ErrUnsupported.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape describes dense row-major tensor extents as
// (width, height, depth, size), width fastest. Trailing dimensions may be
// omitted and read as 1.
type Shape = tensor.Shape

// Tensor is the host-backed descriptor every kernel operates on. The nil
// or zero Tensor is the empty sentinel optional operands use.
type Tensor = tensor.Tensor

// Backend is the linear-algebra facade compute devices implement.
type Backend = tensor.Backend

// Result kinds. Success is a nil error.
var (
	ErrOutOfMemory     = tensor.ErrOutOfMemory
	ErrInvalidArgument = tensor.ErrInvalidArgument
	ErrBackendFailure  = tensor.ErrBackendFailure
	ErrUnsupported     = tensor.ErrUnsupported
)

// New allocates a zero-filled tensor.
//
// Example:
//
//	x, err := tensor.New(tensor.Shape{8, 8, 3}, tensor.Float32, tensor.CPU)
func New(shape Shape, dtype DataType, device Device) (*Tensor, error) {
	return tensor.New(shape, dtype, device)
}

// FromSlice allocates a tensor and copies values into it. The slice
// length must match the shape's element count.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
func FromSlice[T Float](values []T, shape Shape, device Device) (*Tensor, error) {
	return tensor.FromSlice(values, shape, device)
}

// DataOf returns the tensor's data as a typed slice sharing the tensor's
// memory. T must match the tensor's numeric kind.
func DataOf[T Float](t *Tensor) []T {
	return tensor.DataOf[T](t)
}

// DataTypeOf returns the DataType for a generic element type.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}

// Gemm invokes the backend's generalized multiply for element type T.
func Gemm[T Float](be Backend, tA, tB blas.Transpose, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) error {
	return tensor.Gemm(be, tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
}

// Gemv invokes the backend's matrix-vector multiply for element type T.
func Gemv[T Float](be Backend, tA blas.Transpose, m, n int, alpha T, a []T, lda int, x []T, incX int, beta T, y []T, incY int) error {
	return tensor.Gemv(be, tA, m, n, alpha, a, lda, x, incX, beta, y, incY)
}

// Copy invokes the backend's strided copy for element type T.
func Copy[T Float](be Backend, n int, x []T, incX int, y []T, incY int) error {
	return tensor.Copy(be, n, x, incX, y, incY)
}

// CheckGemm validates a Gemm argument set the way every bundled backend
// does. Backend implementations outside this module can use it to match
// the facade's ErrInvalidArgument contract.
func CheckGemm[T Float](tA, tB blas.Transpose, m, n, k int, a []T, lda int, b []T, ldb int, c []T, ldc int) error {
	return tensor.CheckGemm(tA, tB, m, n, k, a, lda, b, ldb, c, ldc)
}

// CheckGemv validates a Gemv argument set.
func CheckGemv[T Float](tA blas.Transpose, m, n int, a []T, lda int, x []T, incX int, y []T, incY int) error {
	return tensor.CheckGemv(tA, m, n, a, lda, x, incX, y, incY)
}

// CheckCopy validates a Copy argument set.
func CheckCopy[T Float](n int, x []T, incX int, y []T, incY int) error {
	return tensor.CheckCopy(n, x, incX, y, incY)
}
