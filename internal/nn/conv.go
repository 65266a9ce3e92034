package nn

import (
	"fmt"

	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/dispatch"
	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/im2row"
	"github.com/weft-ml/weft/internal/tensor"
)

// Conv applies a bank of filters to a batch of volumes by lowering each
// sample to a patch matrix: forward extracts the sample's patches and
// multiplies them by the flattened filter bank, so the whole convolution
// is one general matrix multiply per sample. Backward runs the adjoint
// lowering, scatter-accumulating patch gradients back onto the input.
//
// The window is WindowWidth x WindowHeight taps spread by the dilation
// factors and slid by the strides; the pads extend the input with virtual
// zeros. NewConv fills unit stride and dilation; callers adjust the
// exported fields before the first call. The input's own extents complete
// the patch geometry per call, so one descriptor serves any input size.
type Conv struct {
	ctx *engine.Context

	WindowWidth  int
	WindowHeight int

	StrideX int
	StrideY int

	PadLeft   int
	PadRight  int
	PadTop    int
	PadBottom int

	DilateX int
	DilateY int
}

// NewConv creates a convolution operator bound to ctx with the given
// window, unit stride and dilation, and no padding.
func NewConv(ctx *engine.Context, windowWidth, windowHeight int) *Conv {
	return &Conv{
		ctx:          ctx,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		StrideX:      1,
		StrideY:      1,
		DilateX:      1,
		DilateY:      1,
	}
}

type convForwardFunc func(ctx *engine.Context, output, input, filter, bias *tensor.Tensor, g im2row.Geometry) error

type convBackwardFunc func(ctx *engine.Context, dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor, g im2row.Geometry) error

var (
	convForwardTable  = dispatch.NewTable[convForwardFunc]("convolution forward")
	convBackwardTable = dispatch.NewTable[convBackwardFunc]("convolution backward")
)

func init() {
	convForwardTable.Register(tensor.CPU, tensor.Float32, convForward[float32])
	convForwardTable.Register(tensor.CPU, tensor.Float64, convForward[float64])
	convForwardTable.Register(tensor.WebGPU, tensor.Float32, convForward[float32])
	convBackwardTable.Register(tensor.CPU, tensor.Float32, convBackward[float32])
	convBackwardTable.Register(tensor.CPU, tensor.Float64, convBackward[float64])
	convBackwardTable.Register(tensor.WebGPU, tensor.Float32, convBackward[float32])
}

// geometry completes the patch geometry with the input's extents.
func (op *Conv) geometry(input *tensor.Tensor) im2row.Geometry {
	return im2row.Geometry{
		Width:        input.Width(),
		Height:       input.Height(),
		Depth:        input.Depth(),
		WindowWidth:  op.WindowWidth,
		WindowHeight: op.WindowHeight,
		StrideX:      op.StrideX,
		StrideY:      op.StrideY,
		PadLeft:      op.PadLeft,
		PadRight:     op.PadRight,
		PadTop:       op.PadTop,
		PadBottom:    op.PadBottom,
		DilateX:      op.DilateX,
		DilateY:      op.DilateY,
	}
}

// Forward convolves input with filter and writes output. output, input and
// filter are required; bias (one value per filter) is optional. The output
// sample shape is numPatchesX x numPatchesY x numFilters.
func (op *Conv) Forward(output, input, filter, bias *tensor.Tensor) error {
	const opName = "convolution forward"
	key, err := dispatch.Resolve(output, input, filter, bias)
	if err != nil {
		return op.ctx.Fail(opName, err)
	}
	if output.IsEmpty() || input.IsEmpty() || filter.IsEmpty() {
		return op.ctx.Fail(opName, fmt.Errorf("output, input and filter are required: %w", tensor.ErrInvalidArgument))
	}
	g := op.geometry(input)
	if err := g.Validate(); err != nil {
		return op.ctx.Fail(opName, err)
	}
	if err := checkConvFilter(g, filter); err != nil {
		return op.ctx.Fail(opName, err)
	}
	if err := checkConvOutput(g, output, filter.Size(), input.Size(), "output"); err != nil {
		return op.ctx.Fail(opName, err)
	}
	if !bias.IsEmpty() && bias.NumElements() != filter.Size() {
		return op.ctx.Fail(opName, fmt.Errorf("bias has %d elements, filter bank has %d filters: %w",
			bias.NumElements(), filter.Size(), tensor.ErrInvalidArgument))
	}
	f, err := convForwardTable.Lookup(key)
	if err != nil {
		return op.ctx.Record(err)
	}
	if err := f(op.ctx, output, input, filter, bias, g); err != nil {
		return op.ctx.Fail(opName, err)
	}
	return nil
}

// Backward computes the gradients of the convolution. dOutput and input
// are required; filter is required when dInput is requested. dInput,
// dFilter and dBias are independent optional slots, as in
// FullyConnected.Backward.
func (op *Conv) Backward(dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor) error {
	const opName = "convolution backward"
	key, err := dispatch.Resolve(dInput, dFilter, dBias, input, filter, dOutput)
	if err != nil {
		return op.ctx.Fail(opName, err)
	}
	if dOutput.IsEmpty() || input.IsEmpty() {
		return op.ctx.Fail(opName, fmt.Errorf("dOutput and input are required: %w", tensor.ErrInvalidArgument))
	}
	g := op.geometry(input)
	if err := g.Validate(); err != nil {
		return op.ctx.Fail(opName, err)
	}
	m := dOutput.Depth()
	if err := checkConvOutput(g, dOutput, m, input.Size(), "dOutput"); err != nil {
		return op.ctx.Fail(opName, err)
	}
	if !filter.IsEmpty() {
		if err := checkConvFilter(g, filter); err != nil {
			return op.ctx.Fail(opName, err)
		}
		if filter.Size() != m {
			return op.ctx.Fail(opName, fmt.Errorf("filter bank has %d filters, dOutput depth is %d: %w",
				filter.Size(), m, tensor.ErrInvalidArgument))
		}
	}
	if !dInput.IsEmpty() {
		if filter.IsEmpty() {
			return op.ctx.Fail(opName, fmt.Errorf("dInput needs the forward filter: %w", tensor.ErrInvalidArgument))
		}
		if !dInput.Shape().Equal(input.Shape()) {
			return op.ctx.Fail(opName, fmt.Errorf("dInput shape %v, input shape %v: %w",
				dInput.Shape(), input.Shape(), tensor.ErrInvalidArgument))
		}
	}
	if !dFilter.IsEmpty() {
		if err := checkConvFilter(g, dFilter); err != nil {
			return op.ctx.Fail(opName, err)
		}
		if dFilter.Size() != m {
			return op.ctx.Fail(opName, fmt.Errorf("dFilter holds %d filters, dOutput depth is %d: %w",
				dFilter.Size(), m, tensor.ErrInvalidArgument))
		}
	}
	if !dBias.IsEmpty() && dBias.NumElements() != m {
		return op.ctx.Fail(opName, fmt.Errorf("dBias has %d elements, dOutput depth is %d: %w",
			dBias.NumElements(), m, tensor.ErrInvalidArgument))
	}
	f, err := convBackwardTable.Lookup(key)
	if err != nil {
		return op.ctx.Record(err)
	}
	if err := f(op.ctx, dInput, dFilter, dBias, input, filter, dOutput, g); err != nil {
		return op.ctx.Fail(opName, err)
	}
	return nil
}

// checkConvFilter validates that a filter bank matches the operator window
// and the input depth.
func checkConvFilter(g im2row.Geometry, filter *tensor.Tensor) error {
	if filter.Width() != g.WindowWidth || filter.Height() != g.WindowHeight || filter.Depth() != g.Depth {
		return fmt.Errorf("filter is %dx%dx%d, window needs %dx%dx%d: %w",
			filter.Width(), filter.Height(), filter.Depth(),
			g.WindowWidth, g.WindowHeight, g.Depth, tensor.ErrInvalidArgument)
	}
	return nil
}

// checkConvOutput validates an output-shaped tensor (forward output or
// backward dOutput) against the patch geometry.
func checkConvOutput(g im2row.Geometry, t *tensor.Tensor, depth, size int, name string) error {
	if t.Width() != g.NumPatchesX() || t.Height() != g.NumPatchesY() || t.Depth() != depth || t.Size() != size {
		return fmt.Errorf("%s shape %v, geometry needs %dx%dx%dx%d: %w",
			name, t.Shape(), g.NumPatchesX(), g.NumPatchesY(), depth, size, tensor.ErrInvalidArgument)
	}
	return nil
}

// convForward lowers one sample at a time: patches(rows x cols) holds the
// sample's windows, and outSample(m x cols) = filter(m x rows) * patches.
// The bias broadcast over patch columns reuses the all-ones cache exactly
// as the fully connected operator does over batch columns.
func convForward[T tensor.Float](ctx *engine.Context, output, input, filter, bias *tensor.Tensor, g im2row.Geometry) error {
	be, err := ctx.Backend(output.Device())
	if err != nil {
		return err
	}
	rows, cols := g.NumRows(), g.NumPatches()
	m, n := filter.Size(), input.Size()

	patches, err := tensor.New(tensor.Shape{cols, rows}, output.DType(), output.Device())
	if err != nil {
		return err
	}
	flt := tensor.DataOf[T](filter)

	var onesData []T
	if !bias.IsEmpty() {
		ones, err := ctx.AllOnes(output.Device(), output.DType(), cols)
		if err != nil {
			return err
		}
		onesData = tensor.DataOf[T](ones)[:cols]
	}

	for i := 0; i < n; i++ {
		sample, err := input.Item(i)
		if err != nil {
			return err
		}
		if err := im2row.Extract(ctx, patches, sample, g); err != nil {
			return err
		}
		outSample, err := output.Item(i)
		if err != nil {
			return err
		}
		out := tensor.DataOf[T](outSample)
		if err := tensor.Gemm(be, blas.NoTrans, blas.NoTrans, m, cols, rows, T(1),
			flt, rows, tensor.DataOf[T](patches), cols, T(0), out, cols); err != nil {
			return err
		}
		if onesData != nil {
			// outSample(m x cols) += bias(m x 1) * ones(1 x cols)
			if err := tensor.Gemm(be, blas.NoTrans, blas.NoTrans, m, cols, 1, T(1),
				tensor.DataOf[T](bias), 1, onesData, cols, T(1), out, cols); err != nil {
				return err
			}
		}
	}
	return nil
}

// convBackward computes the requested gradients per sample. dFilter
// accumulates dOutput * patches^T over the batch; dInput maps the patch
// gradient filter^T * dOutput back through the adjoint scatter; dBias sums
// dOutput over patch columns via the all-ones vector.
func convBackward[T tensor.Float](ctx *engine.Context, dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor, g im2row.Geometry) error {
	be, err := ctx.Backend(dOutput.Device())
	if err != nil {
		return err
	}
	rows, cols := g.NumRows(), g.NumPatches()
	m, n := dOutput.Depth(), input.Size()

	var patches *tensor.Tensor
	if !dFilter.IsEmpty() || !dInput.IsEmpty() {
		patches, err = tensor.New(tensor.Shape{cols, rows}, dOutput.DType(), dOutput.Device())
		if err != nil {
			return err
		}
	}
	if !dFilter.IsEmpty() {
		dFilter.Zero()
	}

	var onesData []T
	if !dBias.IsEmpty() {
		dBias.Zero()
		ones, err := ctx.AllOnes(dOutput.Device(), dOutput.DType(), cols)
		if err != nil {
			return err
		}
		onesData = tensor.DataOf[T](ones)[:cols]
	}

	for i := 0; i < n; i++ {
		dOutSample, err := dOutput.Item(i)
		if err != nil {
			return err
		}
		dOut := tensor.DataOf[T](dOutSample)

		if !dFilter.IsEmpty() {
			sample, err := input.Item(i)
			if err != nil {
				return err
			}
			if err := im2row.Extract(ctx, patches, sample, g); err != nil {
				return err
			}
			// dFilter(m x rows) += dOutSample(m x cols) * patches(rows x cols)^T
			if err := tensor.Gemm(be, blas.NoTrans, blas.Trans, m, rows, cols, T(1),
				dOut, cols, tensor.DataOf[T](patches), cols, T(1), tensor.DataOf[T](dFilter), rows); err != nil {
				return err
			}
		}

		if !dInput.IsEmpty() {
			// patches(rows x cols) = filter(m x rows)^T * dOutSample(m x cols)
			if err := tensor.Gemm(be, blas.Trans, blas.NoTrans, rows, cols, m, T(1),
				tensor.DataOf[T](filter), rows, dOut, cols, T(0), tensor.DataOf[T](patches), cols); err != nil {
				return err
			}
			dInSample, err := dInput.Item(i)
			if err != nil {
				return err
			}
			if err := im2row.Accumulate(ctx, dInSample, patches, g); err != nil {
				return err
			}
		}

		if !dBias.IsEmpty() {
			// dBias(m) += dOutSample(m x cols) * ones(cols)
			if err := tensor.Gemv(be, blas.NoTrans, m, cols, T(1), dOut, cols, onesData, 1, T(1), tensor.DataOf[T](dBias), 1); err != nil {
				return err
			}
		}
	}
	return nil
}
