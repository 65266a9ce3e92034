package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/tensor"
)

// The gonum implementation panics on malformed arguments, so every entry
// point runs the shared precondition checks first and reports
// ErrInvalidArgument instead. After validation a panic cannot occur.

// Sgemm computes c = alpha*op(a)*op(b) + beta*c.
func (cpu *CPUBackend) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	if err := tensor.CheckGemm(tA, tB, m, n, k, a, lda, b, ldb, c, ldc); err != nil {
		return fmt.Errorf("sgemm: %w", err)
	}
	cpu.impl.Sgemm(tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return nil
}

// Dgemm computes c = alpha*op(a)*op(b) + beta*c.
func (cpu *CPUBackend) Dgemm(tA, tB blas.Transpose, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error {
	if err := tensor.CheckGemm(tA, tB, m, n, k, a, lda, b, ldb, c, ldc); err != nil {
		return fmt.Errorf("dgemm: %w", err)
	}
	cpu.impl.Dgemm(tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return nil
}

// Sgemv computes y = alpha*op(a)*x + beta*y.
func (cpu *CPUBackend) Sgemv(tA blas.Transpose, m, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error {
	if err := tensor.CheckGemv(tA, m, n, a, lda, x, incX, y, incY); err != nil {
		return fmt.Errorf("sgemv: %w", err)
	}
	cpu.impl.Sgemv(tA, m, n, alpha, a, lda, x, incX, beta, y, incY)
	return nil
}

// Dgemv computes y = alpha*op(a)*x + beta*y.
func (cpu *CPUBackend) Dgemv(tA blas.Transpose, m, n int, alpha float64, a []float64, lda int, x []float64, incX int, beta float64, y []float64, incY int) error {
	if err := tensor.CheckGemv(tA, m, n, a, lda, x, incX, y, incY); err != nil {
		return fmt.Errorf("dgemv: %w", err)
	}
	cpu.impl.Dgemv(tA, m, n, alpha, a, lda, x, incX, beta, y, incY)
	return nil
}

// Scopy copies n strided elements of x into y.
func (cpu *CPUBackend) Scopy(n int, x []float32, incX int, y []float32, incY int) error {
	if err := tensor.CheckCopy(n, x, incX, y, incY); err != nil {
		return fmt.Errorf("scopy: %w", err)
	}
	cpu.impl.Scopy(n, x, incX, y, incY)
	return nil
}

// Dcopy copies n strided elements of x into y.
func (cpu *CPUBackend) Dcopy(n int, x []float64, incX int, y []float64, incY int) error {
	if err := tensor.CheckCopy(n, x, incX, y, incY); err != nil {
		return fmt.Errorf("dcopy: %w", err)
	}
	cpu.impl.Dcopy(n, x, incX, y, incY)
	return nil
}
