// Package cpu implements the linear-algebra facade on the host CPU,
// delegating the BLAS routines to gonum's pure-Go implementation.
package cpu

import (
	"gonum.org/v1/gonum/blas/gonum"

	"github.com/weft-ml/weft/internal/tensor"
)

// Verify that CPUBackend implements the facade.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend provides GEMM, GEMV and strided copy on host memory. The zero
// value is usable; New exists for symmetry with the other backends.
type CPUBackend struct {
	impl gonum.Implementation
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}
