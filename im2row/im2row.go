// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package im2row provides the patch transform that lowers convolution
// onto matrix multiplication: Extract unrolls window patches of a volume
// into the rows of a dense matrix, Accumulate is its adjoint and sums
// patch contributions back onto the volume.
//
// Example:
//
//	ctx := engine.New()
//	g := im2row.NewGeometry(28, 28, 3, 5, 5)
//	g.StrideX, g.StrideY = 2, 2
//
//	volume, _ := tensor.New(tensor.Shape{28, 28, 3}, tensor.Float32, tensor.CPU)
//	matrix, _ := tensor.New(tensor.Shape{g.NumPatches(), g.NumRows()}, tensor.Float32, tensor.CPU)
//
//	if err := im2row.Extract(ctx, matrix, volume, g); err != nil {
//	    log.Fatal(err)
//	}
package im2row

import (
	"github.com/weft-ml/weft/internal/engine"
	internalim2row "github.com/weft-ml/weft/internal/im2row"
	"github.com/weft-ml/weft/internal/tensor"
)

// Geometry describes one patch extraction: volume extents, window size,
// stride, padding and dilation. The patch matrix it implies has
// NumRows() rows and NumPatches() columns.
type Geometry = internalim2row.Geometry

// KernelFunc is the signature device kernels implement for both transform
// directions.
type KernelFunc = internalim2row.KernelFunc

// NewGeometry returns a geometry with unit stride and dilation and no
// padding. Callers adjust fields as needed.
func NewGeometry(width, height, depth, windowWidth, windowHeight int) Geometry {
	return internalim2row.NewGeometry(width, height, depth, windowWidth, windowHeight)
}

// Extract fills the patch matrix dst from the volume src. dst is
// overwritten entirely: in-bounds samples are copied, padding positions
// are written as literal zero.
func Extract(ctx *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	return internalim2row.Extract(ctx, dst, src, g)
}

// Accumulate scatters the patch matrix src back onto the volume dst: dst
// is zero-filled, then every in-bounds matrix entry adds into its volume
// cell, so overlapping patches sum. It is the adjoint of Extract.
func Accumulate(ctx *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	return internalim2row.Accumulate(ctx, dst, src, g)
}

// RegisterExtract binds an Extract specialization for a (device, dtype)
// pair. Device backends call it from their package init.
func RegisterExtract(device tensor.Device, dtype tensor.DataType, f KernelFunc) {
	internalim2row.RegisterExtract(device, dtype, f)
}

// RegisterAccumulate binds an Accumulate specialization for a
// (device, dtype) pair.
func RegisterAccumulate(device tensor.Device, dtype tensor.DataType, f KernelFunc) {
	internalim2row.RegisterAccumulate(device, dtype, f)
}
