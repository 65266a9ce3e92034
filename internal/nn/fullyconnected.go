// Package nn implements the kernel operators of this toolbox: the fully
// connected (affine) operator and the convolution operator that lowers to
// matrix multiplication through the patch transform. Operators hold no
// per-call state beyond their execution context; each call resolves a
// (device, dtype) specialization through the dispatch tables and drives the
// resolved device's linear-algebra facade.
package nn

import (
	"fmt"

	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/dispatch"
	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/tensor"
)

// FullyConnected applies an affine transform to a batch of flattened
// volumes: output = filter^T * input + bias, with the bias broadcast across
// the batch. Input holds n samples of volume V = w*h*d; filter holds m
// flattened filters of the same volume; the result is m values per sample.
// In this repository's row-major rendering the m x n result occupies the
// same memory as output(n x m) = input(n x V) * filter(m x V)^T.
//
// Both filter and bias are optional. Without a filter the operator is an
// identity copy of the input (useful as a pass-through or for bias-only
// addition); without a bias no broadcast is added. The descriptor is
// immutable and reusable across forward and backward calls.
type FullyConnected struct {
	ctx *engine.Context
}

// NewFullyConnected creates a fully connected operator bound to ctx.
func NewFullyConnected(ctx *engine.Context) *FullyConnected {
	return &FullyConnected{ctx: ctx}
}

type fcForwardFunc func(ctx *engine.Context, output, input, filter, bias *tensor.Tensor) error

type fcBackwardFunc func(ctx *engine.Context, dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor) error

var (
	fcForwardTable  = dispatch.NewTable[fcForwardFunc]("fully connected forward")
	fcBackwardTable = dispatch.NewTable[fcBackwardFunc]("fully connected backward")
)

func init() {
	// The operator bodies reach the device only through the linear-algebra
	// facade, so one generic body serves every backend. WebGPU float64
	// stays unregistered: WGSL has no f64.
	fcForwardTable.Register(tensor.CPU, tensor.Float32, fcForward[float32])
	fcForwardTable.Register(tensor.CPU, tensor.Float64, fcForward[float64])
	fcForwardTable.Register(tensor.WebGPU, tensor.Float32, fcForward[float32])
	fcBackwardTable.Register(tensor.CPU, tensor.Float32, fcBackward[float32])
	fcBackwardTable.Register(tensor.CPU, tensor.Float64, fcBackward[float64])
	fcBackwardTable.Register(tensor.WebGPU, tensor.Float32, fcBackward[float32])
}

// Forward computes output = filter^T * input + bias over the batch. output
// and input are required; filter and bias are optional. On success output
// is overwritten entirely; on error it is undefined and the error, one of
// the closed taxonomy, is recorded on the context.
func (op *FullyConnected) Forward(output, input, filter, bias *tensor.Tensor) error {
	const opName = "fully connected forward"
	key, err := dispatch.Resolve(output, input, filter, bias)
	if err != nil {
		return op.ctx.Fail(opName, err)
	}
	if err := checkFCForward(output, input, filter, bias); err != nil {
		return op.ctx.Fail(opName, err)
	}
	f, err := fcForwardTable.Lookup(key)
	if err != nil {
		return op.ctx.Record(err)
	}
	if err := f(op.ctx, output, input, filter, bias); err != nil {
		return op.ctx.Fail(opName, err)
	}
	return nil
}

// Backward computes the gradients of the affine transform. dOutput and
// input are required; filter is the forward filter (optional, matching the
// forward call). dInput, dFilter and dBias are optional output slots: each
// is computed exactly when present, independently of the others, so a
// caller skips a gradient by passing an empty tensor. Any failure aborts
// the call; partially written slots are not rolled back.
func (op *FullyConnected) Backward(dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor) error {
	const opName = "fully connected backward"
	key, err := dispatch.Resolve(dInput, dFilter, dBias, input, filter, dOutput)
	if err != nil {
		return op.ctx.Fail(opName, err)
	}
	if err := checkFCBackward(dInput, dFilter, dBias, input, filter, dOutput); err != nil {
		return op.ctx.Fail(opName, err)
	}
	f, err := fcBackwardTable.Lookup(key)
	if err != nil {
		return op.ctx.Record(err)
	}
	if err := f(op.ctx, dInput, dFilter, dBias, input, filter, dOutput); err != nil {
		return op.ctx.Fail(opName, err)
	}
	return nil
}

// checkFCForward validates shapes before any output byte is written.
func checkFCForward(output, input, filter, bias *tensor.Tensor) error {
	if output.IsEmpty() || input.IsEmpty() {
		return fmt.Errorf("output and input are required: %w", tensor.ErrInvalidArgument)
	}
	if output.Size() != input.Size() {
		return fmt.Errorf("output batch %d, input batch %d: %w",
			output.Size(), input.Size(), tensor.ErrInvalidArgument)
	}
	if !filter.IsEmpty() {
		if filter.Volume() != input.Volume() {
			return fmt.Errorf("filter volume %d, input volume %d: %w",
				filter.Volume(), input.Volume(), tensor.ErrInvalidArgument)
		}
		if output.Volume() != filter.Size() {
			return fmt.Errorf("output has %d values per sample, filter bank has %d filters: %w",
				output.Volume(), filter.Size(), tensor.ErrInvalidArgument)
		}
	} else if output.Volume() != input.Volume() {
		return fmt.Errorf("identity pass needs matching volumes, output %d vs input %d: %w",
			output.Volume(), input.Volume(), tensor.ErrInvalidArgument)
	}
	if !bias.IsEmpty() && bias.NumElements() != output.Volume() {
		return fmt.Errorf("bias has %d elements, output has %d values per sample: %w",
			bias.NumElements(), output.Volume(), tensor.ErrInvalidArgument)
	}
	return nil
}

// checkFCBackward validates the requested gradient slots against the
// forward operands.
func checkFCBackward(dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor) error {
	if dOutput.IsEmpty() || input.IsEmpty() {
		return fmt.Errorf("dOutput and input are required: %w", tensor.ErrInvalidArgument)
	}
	n, m := input.Size(), dOutput.Volume()
	if dOutput.Size() != n {
		return fmt.Errorf("dOutput batch %d, input batch %d: %w",
			dOutput.Size(), n, tensor.ErrInvalidArgument)
	}
	if !filter.IsEmpty() {
		if filter.Volume() != input.Volume() {
			return fmt.Errorf("filter volume %d, input volume %d: %w",
				filter.Volume(), input.Volume(), tensor.ErrInvalidArgument)
		}
		if filter.Size() != m {
			return fmt.Errorf("filter bank has %d filters, dOutput has %d values per sample: %w",
				filter.Size(), m, tensor.ErrInvalidArgument)
		}
	}
	if !dFilter.IsEmpty() {
		if dFilter.Volume() != input.Volume() || dFilter.Size() != m {
			return fmt.Errorf("dFilter is %d filters of volume %d, want %d of %d: %w",
				dFilter.Size(), dFilter.Volume(), m, input.Volume(), tensor.ErrInvalidArgument)
		}
	}
	if !dInput.IsEmpty() {
		if dInput.Volume() != input.Volume() || dInput.Size() != n {
			return fmt.Errorf("dInput shape %v, input shape %v: %w",
				dInput.Shape(), input.Shape(), tensor.ErrInvalidArgument)
		}
		if filter.IsEmpty() && m != input.Volume() {
			return fmt.Errorf("identity pass needs matching volumes, dOutput %d vs input %d: %w",
				m, input.Volume(), tensor.ErrInvalidArgument)
		}
	}
	if !dBias.IsEmpty() && dBias.NumElements() != m {
		return fmt.Errorf("dBias has %d elements, dOutput has %d values per sample: %w",
			dBias.NumElements(), m, tensor.ErrInvalidArgument)
	}
	return nil
}

// fcForward is the facade-generic forward body. A single sample uses the
// matrix-vector product; a batch uses the general multiply. The bias
// broadcast is the outer product bias * ones^T accumulated into the output
// with beta = 1, so no dedicated broadcast kernel is needed.
func fcForward[T tensor.Float](ctx *engine.Context, output, input, filter, bias *tensor.Tensor) error {
	be, err := ctx.Backend(output.Device())
	if err != nil {
		return err
	}
	n, m := input.Size(), output.Volume()
	out := tensor.DataOf[T](output)

	if !filter.IsEmpty() {
		v := input.Volume()
		in := tensor.DataOf[T](input)
		flt := tensor.DataOf[T](filter)
		if n == 1 {
			err = tensor.Gemv(be, blas.NoTrans, m, v, T(1), flt, v, in, 1, T(0), out, 1)
		} else {
			err = tensor.Gemm(be, blas.NoTrans, blas.Trans, n, m, v, T(1), in, v, flt, v, T(0), out, m)
		}
		if err != nil {
			return err
		}
	} else if err := tensor.Copy(be, input.NumElements(), tensor.DataOf[T](input), 1, out, 1); err != nil {
		return err
	}

	if !bias.IsEmpty() {
		ones, err := ctx.AllOnes(output.Device(), output.DType(), n)
		if err != nil {
			return err
		}
		o := tensor.DataOf[T](ones)[:n]
		b := tensor.DataOf[T](bias)
		// output(n x m) += ones(n x 1) * bias(1 x m)
		if err := tensor.Gemm(be, blas.NoTrans, blas.NoTrans, n, m, 1, T(1), o, 1, b, m, T(1), out, m); err != nil {
			return err
		}
	}
	return nil
}

// fcBackward computes the requested gradient slots. The three are
// independent; an error in any sub-step aborts the call.
func fcBackward[T tensor.Float](ctx *engine.Context, dInput, dFilter, dBias, input, filter, dOutput *tensor.Tensor) error {
	be, err := ctx.Backend(dOutput.Device())
	if err != nil {
		return err
	}
	n, m := input.Size(), dOutput.Volume()
	dOut := tensor.DataOf[T](dOutput)

	if !dFilter.IsEmpty() {
		v := input.Volume()
		// dFilter(m x V) = dOutput(n x m)^T * input(n x V)
		if err := tensor.Gemm(be, blas.Trans, blas.NoTrans, m, v, n, T(1),
			dOut, m, tensor.DataOf[T](input), v, T(0), tensor.DataOf[T](dFilter), v); err != nil {
			return err
		}
	}

	if !dInput.IsEmpty() {
		if !filter.IsEmpty() {
			v := input.Volume()
			// dInput(n x V) = dOutput(n x m) * filter(m x V)
			if err := tensor.Gemm(be, blas.NoTrans, blas.NoTrans, n, v, m, T(1),
				dOut, m, tensor.DataOf[T](filter), v, T(0), tensor.DataOf[T](dInput), v); err != nil {
				return err
			}
		} else if err := tensor.Copy(be, dOutput.NumElements(), dOut, 1, tensor.DataOf[T](dInput), 1); err != nil {
			return err
		}
	}

	if !dBias.IsEmpty() {
		ones, err := ctx.AllOnes(dOutput.Device(), dOutput.DType(), n)
		if err != nil {
			return err
		}
		o := tensor.DataOf[T](ones)[:n]
		// dBias(m) = dOutput(n x m)^T * ones(n), the batch-dimension sum
		if err := tensor.Gemv(be, blas.Trans, n, m, T(1), dOut, m, o, 1, T(0), tensor.DataOf[T](dBias), 1); err != nil {
			return err
		}
	}
	return nil
}
