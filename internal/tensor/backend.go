package tensor

import "gonum.org/v1/gonum/blas"

// Backend is the linear-algebra facade one compute device provides to the
// operator layer: generalized matrix multiply, matrix-vector multiply, and
// strided element-wise copy, in float32 and float64. Matrices are dense
// row-major with explicit leading dimensions, following gonum's BLAS
// convention.
//
// Implementations:
//   - backend/cpu: gonum's pure-Go BLAS
//   - backend/webgpu: WGSL compute shaders (float32 only)
//
// Methods return an error from the closed taxonomy instead of panicking, so
// a failure propagates through operator calls unchanged.
type Backend interface {
	// Sgemm computes c = alpha*op(a)*op(b) + beta*c, where op(a) is m x k
	// and op(b) is k x n.
	Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error
	// Dgemm is Sgemm for float64.
	Dgemm(tA, tB blas.Transpose, m, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error

	// Sgemv computes y = alpha*op(a)*x + beta*y for an m x n matrix a.
	Sgemv(tA blas.Transpose, m, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error
	// Dgemv is Sgemv for float64.
	Dgemv(tA blas.Transpose, m, n int, alpha float64, a []float64, lda int, x []float64, incX int, beta float64, y []float64, incY int) error

	// Scopy copies n elements of x into y with the given strides.
	Scopy(n int, x []float32, incX int, y []float32, incY int) error
	// Dcopy is Scopy for float64.
	Dcopy(n int, x []float64, incX int, y []float64, incY int) error

	// Device reports which device the backend serves.
	Device() Device

	// Name identifies the backend implementation.
	Name() string
}

// Gemm invokes the backend's generalized multiply for element type T.
func Gemm[T Float](be Backend, tA, tB blas.Transpose, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) error {
	switch DataTypeOf[T]() {
	case Float64:
		return be.Dgemm(tA, tB, m, n, k, float64(alpha), any(a).([]float64), lda, any(b).([]float64), ldb, float64(beta), any(c).([]float64), ldc)
	default:
		return be.Sgemm(tA, tB, m, n, k, float32(alpha), any(a).([]float32), lda, any(b).([]float32), ldb, float32(beta), any(c).([]float32), ldc)
	}
}

// Gemv invokes the backend's matrix-vector multiply for element type T.
func Gemv[T Float](be Backend, tA blas.Transpose, m, n int, alpha T, a []T, lda int, x []T, incX int, beta T, y []T, incY int) error {
	switch DataTypeOf[T]() {
	case Float64:
		return be.Dgemv(tA, m, n, float64(alpha), any(a).([]float64), lda, any(x).([]float64), incX, float64(beta), any(y).([]float64), incY)
	default:
		return be.Sgemv(tA, m, n, float32(alpha), any(a).([]float32), lda, any(x).([]float32), incX, float32(beta), any(y).([]float32), incY)
	}
}

// Copy invokes the backend's strided copy for element type T.
func Copy[T Float](be Backend, n int, x []T, incX int, y []T, incY int) error {
	switch DataTypeOf[T]() {
	case Float64:
		return be.Dcopy(n, any(x).([]float64), incX, any(y).([]float64), incY)
	default:
		return be.Scopy(n, any(x).([]float32), incX, any(y).([]float32), incY)
	}
}
