// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/tensor"
)

// Backend is the CPU implementation of the linear-algebra facade.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend.
//
// Example:
//
//	be := cpu.New()
//	c := make([]float32, 4)
//	err := be.Sgemm(blas.NoTrans, blas.NoTrans, 2, 2, 2,
//	    1, []float32{1, 2, 3, 4}, 2, []float32{5, 6, 7, 8}, 2, 0, c, 2)
func New() *Backend {
	return internalcpu.New()
}
