package tensor

import "gonum.org/v1/gonum/blas"

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a reference backend for tests. It implements the facade
// with plain loops for correctness cross-checks, records the order of calls
// it receives, and can inject a failure into every call.
type MockBackend struct {
	// Err, when non-nil, is returned by every facade call before any work
	// is done. Used to verify fail-fast propagation through operators.
	Err error

	// Calls records the facade methods invoked, in order.
	Calls []string

	device Device
}

// NewMockBackend creates a MockBackend claiming the given device.
func NewMockBackend(device Device) *MockBackend {
	return &MockBackend{device: device}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device the mock claims to serve.
func (m *MockBackend) Device() Device {
	return m.device
}

// Sgemm computes c = alpha*op(a)*op(b) + beta*c with plain loops.
func (m *MockBackend) Sgemm(tA, tB blas.Transpose, mm, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "sgemm")
	gemmLoops(tA, tB, mm, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return nil
}

// Dgemm is Sgemm for float64.
func (m *MockBackend) Dgemm(tA, tB blas.Transpose, mm, n, k int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "dgemm")
	gemmLoops(tA, tB, mm, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	return nil
}

// Sgemv computes y = alpha*op(a)*x + beta*y with plain loops.
func (m *MockBackend) Sgemv(tA blas.Transpose, mm, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "sgemv")
	gemvLoops(tA, mm, n, alpha, a, lda, x, incX, beta, y, incY)
	return nil
}

// Dgemv is Sgemv for float64.
func (m *MockBackend) Dgemv(tA blas.Transpose, mm, n int, alpha float64, a []float64, lda int, x []float64, incX int, beta float64, y []float64, incY int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "dgemv")
	gemvLoops(tA, mm, n, alpha, a, lda, x, incX, beta, y, incY)
	return nil
}

// Scopy copies n strided elements of x into y.
func (m *MockBackend) Scopy(n int, x []float32, incX int, y []float32, incY int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "scopy")
	copyLoop(n, x, incX, y, incY)
	return nil
}

// Dcopy is Scopy for float64.
func (m *MockBackend) Dcopy(n int, x []float64, incX int, y []float64, incY int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Calls = append(m.Calls, "dcopy")
	copyLoop(n, x, incX, y, incY)
	return nil
}

// gemmLoops is the textbook row-major GEMM. Strides incX/incY below are
// assumed positive; the mock exists for small test problems only.
func gemmLoops[T Float](tA, tB blas.Transpose, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	at := func(i, p int) T {
		if tA == blas.NoTrans {
			return a[i*lda+p]
		}
		return a[p*lda+i]
	}
	bt := func(p, j int) T {
		if tB == blas.NoTrans {
			return b[p*ldb+j]
		}
		return b[j*ldb+p]
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for p := 0; p < k; p++ {
				sum += at(i, p) * bt(p, j)
			}
			if beta == 0 {
				c[i*ldc+j] = alpha * sum
			} else {
				c[i*ldc+j] = alpha*sum + beta*c[i*ldc+j]
			}
		}
	}
}

func gemvLoops[T Float](tA blas.Transpose, m, n int, alpha T, a []T, lda int, x []T, incX int, beta T, y []T, incY int) {
	lenY := m
	if tA != blas.NoTrans {
		lenY = n
	}
	for i := 0; i < lenY; i++ {
		var sum T
		if tA == blas.NoTrans {
			for j := 0; j < n; j++ {
				sum += a[i*lda+j] * x[j*incX]
			}
		} else {
			for j := 0; j < m; j++ {
				sum += a[j*lda+i] * x[j*incX]
			}
		}
		if beta == 0 {
			y[i*incY] = alpha * sum
		} else {
			y[i*incY] = alpha*sum + beta*y[i*incY]
		}
	}
}

func copyLoop[T Float](n int, x []T, incX int, y []T, incY int) {
	for i := 0; i < n; i++ {
		y[i*incY] = x[i*incX]
	}
}
