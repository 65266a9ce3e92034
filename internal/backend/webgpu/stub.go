//go:build !windows

package webgpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/tensor"
)

// Verify that the stub satisfies the facade on every platform.
var _ tensor.Backend = (*Backend)(nil)

var errUnavailable = fmt.Errorf("webgpu is not wired on this platform: %w", tensor.ErrUnsupported)

// Backend is the placeholder for platforms without the native wgpu
// runtime.
type Backend struct{}

// New reports ErrUnsupported on this platform.
func New() (*Backend, error) {
	return nil, errUnavailable
}

// IsAvailable reports whether WebGPU can be initialized. Always false on
// this platform.
func IsAvailable() bool { return false }

// Release is a no-op.
func (gpu *Backend) Release() {}

// Name identifies the backend.
func (gpu *Backend) Name() string { return "WebGPU" }

// Device returns the compute device.
func (gpu *Backend) Device() tensor.Device { return tensor.WebGPU }

// Sgemm reports ErrUnsupported.
func (gpu *Backend) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	return errUnavailable
}

// Dgemm reports ErrUnsupported.
func (gpu *Backend) Dgemm(tA, tB blas.Transpose, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error {
	return errUnavailable
}

// Sgemv reports ErrUnsupported.
func (gpu *Backend) Sgemv(tA blas.Transpose, m, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error {
	return errUnavailable
}

// Dgemv reports ErrUnsupported.
func (gpu *Backend) Dgemv(tA blas.Transpose, m, n int, alpha float64, a []float64, lda int, x []float64, incX int, beta float64, y []float64, incY int) error {
	return errUnavailable
}

// Scopy reports ErrUnsupported.
func (gpu *Backend) Scopy(n int, x []float32, incX int, y []float32, incY int) error {
	return errUnavailable
}

// Dcopy reports ErrUnsupported.
func (gpu *Backend) Dcopy(n int, x []float64, incX int, y []float64, incY int) error {
	return errUnavailable
}
