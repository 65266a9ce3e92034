package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
)

// The facade contract requires ErrInvalidArgument for malformed BLAS
// arguments rather than a panic or device fault. Backends share these
// precondition checks so a bad call is rejected identically on every
// device.

// CheckGemm validates the argument set of Sgemm/Dgemm.
func CheckGemm[T Float](tA, tB blas.Transpose, m, n, k int, a []T, lda int, b []T, ldb int, c []T, ldc int) error {
	if !validTranspose(tA) || !validTranspose(tB) {
		return fmt.Errorf("bad transpose flag: %w", ErrInvalidArgument)
	}
	ra, ca := m, k
	if tA != blas.NoTrans {
		ra, ca = k, m
	}
	rb, cb := k, n
	if tB != blas.NoTrans {
		rb, cb = n, k
	}
	if err := checkMatrix(ra, ca, a, lda); err != nil {
		return fmt.Errorf("a: %w", err)
	}
	if err := checkMatrix(rb, cb, b, ldb); err != nil {
		return fmt.Errorf("b: %w", err)
	}
	if err := checkMatrix(m, n, c, ldc); err != nil {
		return fmt.Errorf("c: %w", err)
	}
	return nil
}

// CheckGemv validates the argument set of Sgemv/Dgemv.
func CheckGemv[T Float](tA blas.Transpose, m, n int, a []T, lda int, x []T, incX int, y []T, incY int) error {
	if !validTranspose(tA) {
		return fmt.Errorf("bad transpose flag: %w", ErrInvalidArgument)
	}
	lenX, lenY := n, m
	if tA != blas.NoTrans {
		lenX, lenY = m, n
	}
	if err := checkMatrix(m, n, a, lda); err != nil {
		return fmt.Errorf("a: %w", err)
	}
	if err := checkVector(lenX, x, incX); err != nil {
		return fmt.Errorf("x: %w", err)
	}
	if err := checkVector(lenY, y, incY); err != nil {
		return fmt.Errorf("y: %w", err)
	}
	return nil
}

// CheckCopy validates the argument set of Scopy/Dcopy.
func CheckCopy[T Float](n int, x []T, incX int, y []T, incY int) error {
	if err := checkVector(n, x, incX); err != nil {
		return fmt.Errorf("x: %w", err)
	}
	if err := checkVector(n, y, incY); err != nil {
		return fmt.Errorf("y: %w", err)
	}
	return nil
}

func validTranspose(t blas.Transpose) bool {
	return t == blas.NoTrans || t == blas.Trans || t == blas.ConjTrans
}

// checkMatrix validates the leading dimension and backing length of a
// row-major r x c matrix argument.
func checkMatrix[T Float](r, c int, a []T, lda int) error {
	if r < 0 || c < 0 {
		return fmt.Errorf("negative dimension %dx%d: %w", r, c, ErrInvalidArgument)
	}
	if lda < 1 || lda < c {
		return fmt.Errorf("leading dimension %d for row length %d: %w", lda, c, ErrInvalidArgument)
	}
	if r > 0 && len(a) < (r-1)*lda+c {
		return fmt.Errorf("backing slice holds %d elements, %dx%d with stride %d needs %d: %w",
			len(a), r, c, lda, (r-1)*lda+c, ErrInvalidArgument)
	}
	return nil
}

// checkVector validates the stride and backing length of an n-element
// strided vector argument.
func checkVector[T Float](n int, x []T, inc int) error {
	if n < 0 {
		return fmt.Errorf("negative vector length %d: %w", n, ErrInvalidArgument)
	}
	if inc == 0 {
		return fmt.Errorf("zero vector stride: %w", ErrInvalidArgument)
	}
	abs := inc
	if abs < 0 {
		abs = -abs
	}
	if n > 0 && len(x) < 1+(n-1)*abs {
		return fmt.Errorf("backing slice holds %d elements, %d with stride %d needs %d: %w",
			len(x), n, inc, 1+(n-1)*abs, ErrInvalidArgument)
	}
	return nil
}
