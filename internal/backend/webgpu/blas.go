//go:build windows

package webgpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/tensor"
)

// Entry points run the shared precondition checks before touching the
// device, so a malformed call reports ErrInvalidArgument identically to
// the CPU backend. The float64 variants report ErrUnsupported because
// WGSL has no f64 type.

// Sgemm computes c = alpha*op(a)*op(b) + beta*c on the GPU.
func (gpu *Backend) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	if err := tensor.CheckGemm(tA, tB, m, n, k, a, lda, b, ldb, c, ldc); err != nil {
		return fmt.Errorf("sgemm: %w", err)
	}
	if err := gpu.runGemm(tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc); err != nil {
		return fmt.Errorf("sgemm: %w", err)
	}
	return nil
}

// Dgemm reports ErrUnsupported.
func (gpu *Backend) Dgemm(tA, tB blas.Transpose, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error {
	return fmt.Errorf("dgemm: float64 on webgpu: %w", tensor.ErrUnsupported)
}

// Sgemv computes y = alpha*op(a)*x + beta*y on the GPU.
func (gpu *Backend) Sgemv(tA blas.Transpose, m, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error {
	if err := tensor.CheckGemv(tA, m, n, a, lda, x, incX, y, incY); err != nil {
		return fmt.Errorf("sgemv: %w", err)
	}
	if err := gpu.runGemv(tA, m, n, alpha, a, lda, x, incX, beta, y, incY); err != nil {
		return fmt.Errorf("sgemv: %w", err)
	}
	return nil
}

// Dgemv reports ErrUnsupported.
func (gpu *Backend) Dgemv(tA blas.Transpose, m, n int, alpha float64, a []float64, lda int, x []float64, incX int, beta float64, y []float64, incY int) error {
	return fmt.Errorf("dgemv: float64 on webgpu: %w", tensor.ErrUnsupported)
}

// Scopy copies n strided elements of x into y on the GPU.
func (gpu *Backend) Scopy(n int, x []float32, incX int, y []float32, incY int) error {
	if err := tensor.CheckCopy(n, x, incX, y, incY); err != nil {
		return fmt.Errorf("scopy: %w", err)
	}
	if err := gpu.runCopy(n, x, incX, y, incY); err != nil {
		return fmt.Errorf("scopy: %w", err)
	}
	return nil
}

// Dcopy reports ErrUnsupported.
func (gpu *Backend) Dcopy(n int, x []float64, incX int, y []float64, incY int) error {
	return fmt.Errorf("dcopy: float64 on webgpu: %w", tensor.ErrUnsupported)
}
