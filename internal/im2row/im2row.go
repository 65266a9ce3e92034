// Package im2row converts between padded, strided, dilated 3-D volumes and
// row-major patch matrices. Extract stacks every sampling window of a
// volume as matrix entries so convolution lowers to one matrix multiply;
// Accumulate is its adjoint, scattering matrix entries back onto the volume
// and summing where patches overlap.
//
// The patch matrix has one row per within-window offset (u, v, z) and one
// column per patch position (x, y), x minor. Row r decomposes as
// u = r mod windowWidth, v = (r / windowWidth) mod windowHeight,
// z = r / (windowWidth*windowHeight); row r, column (x, y) holds the volume
// value at (x*strideX + u*dilateX - padLeft, y*strideY + v*dilateY - padTop, z),
// or zero where that coordinate lands in the padding.
//
// The CPU kernels never test bounds per pixel. Each row's in-bounds patch
// interval [x0,x1) x [y0,y1) is derived once with exact ceiling/floor
// division; everything outside is written (or skipped) as zero and the
// in-bounds run is a streaming copy advancing by the stride.
package im2row

import (
	"fmt"

	"github.com/weft-ml/weft/internal/dispatch"
	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// KernelFunc is one device/dtype specialization of Extract or Accumulate.
// dst and src arrive validated against the geometry.
type KernelFunc func(ctx *engine.Context, dst, src *tensor.Tensor, g Geometry) error

var (
	extractTable    = dispatch.NewTable[KernelFunc]("im2row extract")
	accumulateTable = dispatch.NewTable[KernelFunc]("im2row accumulate")

	rowFillConfig = parallel.DefaultConfig()
)

func init() {
	extractTable.Register(tensor.CPU, tensor.Float32, extractCPU[float32])
	extractTable.Register(tensor.CPU, tensor.Float64, extractCPU[float64])
	accumulateTable.Register(tensor.CPU, tensor.Float32, accumulateCPU[float32])
	accumulateTable.Register(tensor.CPU, tensor.Float64, accumulateCPU[float64])
}

// RegisterExtract binds an Extract specialization for a (device, dtype)
// pair. Device backends call it from their package init.
func RegisterExtract(device tensor.Device, dtype tensor.DataType, f KernelFunc) {
	extractTable.Register(device, dtype, f)
}

// RegisterAccumulate binds an Accumulate specialization for a
// (device, dtype) pair.
func RegisterAccumulate(device tensor.Device, dtype tensor.DataType, f KernelFunc) {
	accumulateTable.Register(device, dtype, f)
}

// Extract fills the patch matrix dst from the volume src. dst is
// overwritten entirely: in-bounds samples are copied, padding positions are
// written as literal zero.
func Extract(ctx *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	const op = "im2row extract"
	key, err := dispatch.Resolve(dst, src)
	if err != nil {
		return ctx.Fail(op, err)
	}
	if err := checkSizes(dst, src, g); err != nil {
		return ctx.Fail(op, err)
	}
	f, err := extractTable.Lookup(key)
	if err != nil {
		return ctx.Record(err)
	}
	if err := f(ctx, dst, src, g); err != nil {
		return ctx.Fail(op, err)
	}
	return nil
}

// Accumulate scatters the patch matrix src back onto the volume dst: dst is
// zero-filled, then every in-bounds matrix entry adds into its volume cell,
// so overlapping patches sum. It is the adjoint of Extract.
func Accumulate(ctx *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	const op = "im2row accumulate"
	key, err := dispatch.Resolve(dst, src)
	if err != nil {
		return ctx.Fail(op, err)
	}
	if err := checkSizes(src, dst, g); err != nil {
		return ctx.Fail(op, err)
	}
	f, err := accumulateTable.Lookup(key)
	if err != nil {
		return ctx.Record(err)
	}
	if err := f(ctx, dst, src, g); err != nil {
		return ctx.Fail(op, err)
	}
	return nil
}

// checkSizes validates the geometry and both tensor extents before a kernel
// runs, so inconsistent callers get ErrInvalidArgument instead of undefined
// read/write ranges. matrix is the patch-matrix operand, volume the volume
// operand, whichever direction the transform runs.
func checkSizes(matrix, volume *tensor.Tensor, g Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if matrix.IsEmpty() || volume.IsEmpty() {
		return fmt.Errorf("operand missing: %w", tensor.ErrInvalidArgument)
	}
	if want := g.Width * g.Height * g.Depth; volume.NumElements() != want {
		return fmt.Errorf("volume has %d elements, geometry %dx%dx%d needs %d: %w",
			volume.NumElements(), g.Width, g.Height, g.Depth, want, tensor.ErrInvalidArgument)
	}
	if want := g.NumRows() * g.NumPatches(); matrix.NumElements() != want {
		return fmt.Errorf("patch matrix has %d elements, geometry needs %dx%d: %w",
			matrix.NumElements(), g.NumRows(), g.NumPatches(), tensor.ErrInvalidArgument)
	}
	return nil
}

// extractCPU fills rows of the patch matrix. Rows write disjoint output
// ranges, so they fill in parallel.
func extractCPU[T tensor.Float](_ *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	out := tensor.DataOf[T](dst)
	in := tensor.DataOf[T](src)
	npx, npy := g.NumPatchesX(), g.NumPatchesY()

	parallel.For(g.NumRows(), func(row int) {
		extractRow(out, in, g, npx, npy, row)
	}, rowFillConfig)
	return nil
}

// extractRow writes the numPatchesX*numPatchesY entries of one matrix row.
// The cursor s sweeps the row's whole output range; the source cursor b is
// derived once per in-bounds run and advanced by the stride.
func extractRow[T tensor.Float](out, in []T, g Geometry, npx, npy, row int) {
	u := row % g.WindowWidth
	v := (row / g.WindowWidth) % g.WindowHeight
	z := row / (g.WindowWidth * g.WindowHeight)

	x0, y0, x1, y1 := bounds(g, u, v, npx, npy)

	s := row * npx * npy
	y := 0
	for ; y < y0; y++ {
		for x := 0; x < npx; x++ {
			out[s] = 0
			s++
		}
	}
	for ; y < y1; y++ {
		x := 0
		for ; x < x0; x++ {
			out[s] = 0
			s++
		}
		yData := y*g.StrideY + v*g.DilateY - g.PadTop
		xData := x*g.StrideX + u*g.DilateX - g.PadLeft
		b := (z*g.Height+yData)*g.Width + xData
		for ; x < x1; x++ {
			out[s] = in[b]
			s++
			b += g.StrideX
		}
		for ; x < npx; x++ {
			out[s] = 0
			s++
		}
	}
	for ; y < npy; y++ {
		for x := 0; x < npx; x++ {
			out[s] = 0
			s++
		}
	}
}

// accumulateCPU is sequential: distinct rows can hit the same volume cell,
// and the read cursor must advance across the entire matrix, including
// skipped zero regions, to stay aligned with its layout.
func accumulateCPU[T tensor.Float](_ *engine.Context, dst, src *tensor.Tensor, g Geometry) error {
	out := tensor.DataOf[T](dst)
	in := tensor.DataOf[T](src)
	npx, npy := g.NumPatchesX(), g.NumPatchesY()

	clear(out)

	s := 0
	for row := 0; row < g.NumRows(); row++ {
		u := row % g.WindowWidth
		v := (row / g.WindowWidth) % g.WindowHeight
		z := row / (g.WindowWidth * g.WindowHeight)

		x0, y0, x1, y1 := bounds(g, u, v, npx, npy)

		y := max(0, y0)
		s += npx * y
		for ; y < y1; y++ {
			x := max(0, x0)
			yData := y*g.StrideY + v*g.DilateY - g.PadTop
			xData := x*g.StrideX + u*g.DilateX - g.PadLeft
			b := (z*g.Height+yData)*g.Width + xData
			s += x
			for ; x < x1; x++ {
				out[b] += in[s]
				s++
				b += g.StrideX
			}
			s += npx - x
		}
		s += npx * (npy - y)
	}
	return nil
}

// bounds derives the in-bounds patch interval [x0,x1) x [y0,y1) for the
// window offset (u, v). Patch x samples volume column
// x*strideX + u*dilateX - padLeft, which is in [0, width) exactly for
//
//	ceil((padLeft - u*dilateX)/strideX) <= x
//	x <= floor((width-1 + padLeft - u*dilateX)/strideX)
//
// and likewise for y. Both ends are clamped to the patch counts; x1 < x0
// (an empty interval) is legitimate under heavy dilation or padding and the
// scan loops tolerate it.
func bounds(g Geometry, u, v, npx, npy int) (x0, y0, x1, y1 int) {
	x0 = min(npx, ceilDiv(g.PadLeft-u*g.DilateX, g.StrideX))
	y0 = min(npy, ceilDiv(g.PadTop-v*g.DilateY, g.StrideY))
	x1 = min(npx, floorDiv(g.Width+g.PadLeft-u*g.DilateX-1, g.StrideX)+1)
	y1 = min(npy, floorDiv(g.Height+g.PadTop-v*g.DilateY-1, g.StrideY)+1)
	return x0, y0, x1, y1
}
