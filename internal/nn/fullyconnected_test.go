package nn

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/tensor"
)

// fill writes a deterministic pseudo-random pattern so reference
// comparisons cover irregular values without flakiness.
func fill[T tensor.Float](s []T, seed uint32) {
	state := seed
	for i := range s {
		state = state*1664525 + 1013904223
		s[i] = T(float64(state>>8)/float64(1<<24) - 0.5)
	}
}

func fromSlice[T tensor.Float](t *testing.T, values []T, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	ten, err := tensor.FromSlice(values, shape, tensor.CPU)
	require.NoError(t, err)
	return ten
}

func newTensor(t *testing.T, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	t.Helper()
	ten, err := tensor.New(shape, dtype, device)
	require.NoError(t, err)
	return ten
}

// naiveFCForward computes filter^T * input + bias per sample with explicit
// loops, the reference the operator must agree with.
func naiveFCForward[T tensor.Float](in, flt, bias []T, n, v, m int) []T {
	out := make([]T, n*m)
	for s := 0; s < n; s++ {
		for f := 0; f < m; f++ {
			var sum T
			for r := 0; r < v; r++ {
				sum += in[s*v+r] * flt[f*v+r]
			}
			if bias != nil {
				sum += bias[f]
			}
			out[s*m+f] = sum
		}
	}
	return out
}

// TestFullyConnectedForward_BiasBroadcast pins the exact memory layout of
// the broadcast: three scalar samples through two filters with biases.
func TestFullyConnectedForward_BiasBroadcast(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	input := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{1, 1, 1, 3})
	filter := fromSlice(t, []float32{1, 2}, tensor.Shape{1, 1, 1, 2})
	bias := fromSlice(t, []float32{10, 20}, tensor.Shape{2})
	output := newTensor(t, tensor.Shape{1, 1, 2, 3}, tensor.Float32, tensor.CPU)

	require.NoError(t, op.Forward(output, input, filter, bias))
	assert.Equal(t, []float32{11, 22, 12, 24, 13, 26}, output.AsFloat32())
}

// TestFullyConnectedForward_IdentityFilter checks that the identity filter
// bank reproduces the input for every sample.
func TestFullyConnectedForward_IdentityFilter(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	const v, n = 4, 2
	inVals := make([]float32, v*n)
	fill(inVals, 3)
	identity := make([]float32, v*v)
	for i := 0; i < v; i++ {
		identity[i*v+i] = 1
	}

	input := fromSlice(t, inVals, tensor.Shape{2, 2, 1, n})
	filter := fromSlice(t, identity, tensor.Shape{2, 2, 1, v})
	output := newTensor(t, tensor.Shape{1, 1, v, n}, tensor.Float32, tensor.CPU)

	require.NoError(t, op.Forward(output, input, filter, nil))
	assert.Equal(t, inVals, output.AsFloat32())
}

// TestFullyConnectedForward_NoFilterCopiesInput checks the pass-through:
// without a filter the input is copied and an optional bias is still added.
func TestFullyConnectedForward_NoFilterCopiesInput(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)

	require.NoError(t, op.Forward(output, input, nil, nil))
	assert.Equal(t, []float32{1, 2, 3, 4}, output.AsFloat32())

	bias := fromSlice(t, []float32{10, 20}, tensor.Shape{2})
	require.NoError(t, op.Forward(output, input, nil, bias))
	assert.Equal(t, []float32{11, 22, 13, 24}, output.AsFloat32())
}

// TestFullyConnectedForward_SingleSampleUsesGemv checks the matrix-vector
// fast path: a batch of one routes to gemv instead of gemm.
func TestFullyConnectedForward_SingleSampleUsesGemv(t *testing.T) {
	ctx := engine.New()
	mock := tensor.NewMockBackend(tensor.CPU)
	ctx.Register(mock)
	op := NewFullyConnected(ctx)

	input := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{1, 1, 3, 1})
	filter := fromSlice(t, []float32{1, 0, 0, 0, 1, 1}, tensor.Shape{1, 1, 3, 2})
	output := newTensor(t, tensor.Shape{1, 1, 2, 1}, tensor.Float32, tensor.CPU)

	require.NoError(t, op.Forward(output, input, filter, nil))
	assert.Equal(t, []string{"sgemv"}, mock.Calls)
	assert.Equal(t, []float32{1, 5}, output.AsFloat32())

	batched := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 1, 3, 2})
	batchedOut := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	mock.Calls = nil
	require.NoError(t, op.Forward(batchedOut, batched, filter, nil))
	assert.Equal(t, []string{"sgemm"}, mock.Calls)
}

func runFCForwardReference[T tensor.Float](t *testing.T, withBias bool) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)
	dtype := tensor.DataTypeOf[T]()

	const n, m = 3, 4
	shape := tensor.Shape{3, 2, 1, n} // volume 6 per sample
	v := shape.Volume()

	inVals := make([]T, n*v)
	fltVals := make([]T, m*v)
	fill(inVals, 5)
	fill(fltVals, 17)

	input, err := tensor.FromSlice(inVals, shape, tensor.CPU)
	require.NoError(t, err)
	filter, err := tensor.FromSlice(fltVals, tensor.Shape{3, 2, 1, m}, tensor.CPU)
	require.NoError(t, err)
	output := newTensor(t, tensor.Shape{1, 1, m, n}, dtype, tensor.CPU)

	var bias *tensor.Tensor
	var biasVals []T
	if withBias {
		biasVals = make([]T, m)
		fill(biasVals, 29)
		bias, err = tensor.FromSlice(biasVals, tensor.Shape{m}, tensor.CPU)
		require.NoError(t, err)
	}

	require.NoError(t, op.Forward(output, input, filter, bias))

	want := naiveFCForward(inVals, fltVals, biasVals, n, v, m)
	got := tensor.DataOf[T](output)
	for i := range want {
		assert.InDelta(t, float64(want[i]), float64(got[i]), 1e-4, "output element %d", i)
	}
}

func TestFullyConnectedForward_MatchesReference(t *testing.T) {
	t.Run("float32", func(t *testing.T) { runFCForwardReference[float32](t, false) })
	t.Run("float32 with bias", func(t *testing.T) { runFCForwardReference[float32](t, true) })
	t.Run("float64", func(t *testing.T) { runFCForwardReference[float64](t, false) })
	t.Run("float64 with bias", func(t *testing.T) { runFCForwardReference[float64](t, true) })
}

// TestFullyConnectedBackward_BiasGradientSumsBatch pins the bias gradient:
// the sum of dOutput over the batch dimension.
func TestFullyConnectedBackward_BiasGradientSumsBatch(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	input := fromSlice(t, make([]float32, 15), tensor.Shape{5, 1, 1, 3})
	dOutput := fromSlice(t, []float32{1, 2, 1, 2, 1, 2}, tensor.Shape{1, 1, 2, 3})
	dBias := newTensor(t, tensor.Shape{2}, tensor.Float32, tensor.CPU)

	require.NoError(t, op.Backward(nil, nil, dBias, input, nil, dOutput))
	assert.Equal(t, []float32{3, 6}, dBias.AsFloat32())
}

func runFCBackwardReference[T tensor.Float](t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)
	dtype := tensor.DataTypeOf[T]()

	const n, m = 4, 3
	shape := tensor.Shape{2, 2, 2, n} // volume 8 per sample
	v := shape.Volume()

	inVals := make([]T, n*v)
	fltVals := make([]T, m*v)
	dOutVals := make([]T, n*m)
	fill(inVals, 7)
	fill(fltVals, 11)
	fill(dOutVals, 13)

	input, err := tensor.FromSlice(inVals, shape, tensor.CPU)
	require.NoError(t, err)
	filter, err := tensor.FromSlice(fltVals, tensor.Shape{2, 2, 2, m}, tensor.CPU)
	require.NoError(t, err)
	dOutput, err := tensor.FromSlice(dOutVals, tensor.Shape{1, 1, m, n}, tensor.CPU)
	require.NoError(t, err)

	dInput := newTensor(t, shape, dtype, tensor.CPU)
	dFilter := newTensor(t, tensor.Shape{2, 2, 2, m}, dtype, tensor.CPU)
	dBias := newTensor(t, tensor.Shape{m}, dtype, tensor.CPU)

	require.NoError(t, op.Backward(dInput, dFilter, dBias, input, filter, dOutput))

	wantDFilter := make([]T, m*v)
	wantDInput := make([]T, n*v)
	wantDBias := make([]T, m)
	for s := 0; s < n; s++ {
		for f := 0; f < m; f++ {
			g := dOutVals[s*m+f]
			wantDBias[f] += g
			for r := 0; r < v; r++ {
				wantDFilter[f*v+r] += g * inVals[s*v+r]
				wantDInput[s*v+r] += g * fltVals[f*v+r]
			}
		}
	}

	for i, want := range wantDFilter {
		assert.InDelta(t, float64(want), float64(tensor.DataOf[T](dFilter)[i]), 1e-4, "dFilter element %d", i)
	}
	for i, want := range wantDInput {
		assert.InDelta(t, float64(want), float64(tensor.DataOf[T](dInput)[i]), 1e-4, "dInput element %d", i)
	}
	for i, want := range wantDBias {
		assert.InDelta(t, float64(want), float64(tensor.DataOf[T](dBias)[i]), 1e-4, "dBias element %d", i)
	}
}

func TestFullyConnectedBackward_MatchesReference(t *testing.T) {
	t.Run("float32", func(t *testing.T) { runFCBackwardReference[float32](t) })
	t.Run("float64", func(t *testing.T) { runFCBackwardReference[float64](t) })
}

// TestFullyConnectedBackward_SlotsAreIndependent checks that each gradient
// is produced exactly when its slot is present, and that the others stay
// untouched.
func TestFullyConnectedBackward_SlotsAreIndependent(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	const n, v, m = 2, 3, 2
	inVals := []float32{1, 2, 3, 4, 5, 6}
	fltVals := []float32{1, 0, 1, 0, 1, 0}
	dOutVals := []float32{1, 2, 3, 4}

	input := fromSlice(t, inVals, tensor.Shape{1, 1, v, n})
	filter := fromSlice(t, fltVals, tensor.Shape{1, 1, v, m})
	dOutput := fromSlice(t, dOutVals, tensor.Shape{1, 1, m, n})

	t.Run("filter gradient only", func(t *testing.T) {
		dFilter := newTensor(t, tensor.Shape{1, 1, v, m}, tensor.Float32, tensor.CPU)
		require.NoError(t, op.Backward(nil, dFilter, nil, input, filter, dOutput))
		// dFilter[f] = sum_s dOut[s][f] * in[s]
		assert.Equal(t, []float32{13, 17, 21, 18, 24, 30}, dFilter.AsFloat32())
	})

	t.Run("input gradient only", func(t *testing.T) {
		dInput := newTensor(t, tensor.Shape{1, 1, v, n}, tensor.Float32, tensor.CPU)
		require.NoError(t, op.Backward(dInput, nil, nil, input, filter, dOutput))
		// dIn[s] = sum_f dOut[s][f] * flt[f]
		assert.Equal(t, []float32{1, 2, 1, 3, 4, 3}, dInput.AsFloat32())
	})

	t.Run("filter gradient without forward filter", func(t *testing.T) {
		dFilter := newTensor(t, tensor.Shape{1, 1, v, m}, tensor.Float32, tensor.CPU)
		require.NoError(t, op.Backward(nil, dFilter, nil, input, nil, dOutput))
		assert.Equal(t, []float32{13, 17, 21, 18, 24, 30}, dFilter.AsFloat32())
	})

	t.Run("pass-through input gradient", func(t *testing.T) {
		square := fromSlice(t, dOutVals, tensor.Shape{1, 1, m, n})
		dInput := newTensor(t, tensor.Shape{1, 1, m, n}, tensor.Float32, tensor.CPU)
		require.NoError(t, op.Backward(dInput, nil, nil, square, nil, square))
		assert.Equal(t, dOutVals, dInput.AsFloat32())
	})
}

func TestFullyConnected_RejectsBadArguments(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	input := fromSlice(t, make([]float32, 6), tensor.Shape{1, 1, 3, 2})
	filter := fromSlice(t, make([]float32, 6), tensor.Shape{1, 1, 3, 2})
	output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)

	t.Run("missing input", func(t *testing.T) {
		err := op.Forward(output, nil, filter, nil)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("filter volume mismatch", func(t *testing.T) {
		wide := fromSlice(t, make([]float32, 8), tensor.Shape{1, 1, 4, 2})
		err := op.Forward(output, wide, filter, nil)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("batch mismatch", func(t *testing.T) {
		three := fromSlice(t, make([]float32, 9), tensor.Shape{1, 1, 3, 3})
		err := op.Forward(output, three, filter, nil)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("bias length mismatch", func(t *testing.T) {
		bias := fromSlice(t, make([]float32, 3), tensor.Shape{3})
		err := op.Forward(output, input, filter, bias)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("identity pass volume mismatch", func(t *testing.T) {
		err := op.Forward(output, fromSlice(t, make([]float32, 8), tensor.Shape{1, 1, 4, 2}), nil, nil)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("dFilter shape mismatch", func(t *testing.T) {
		dOutput := fromSlice(t, make([]float32, 4), tensor.Shape{1, 1, 2, 2})
		bad := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
		err := op.Backward(nil, bad, nil, input, filter, dOutput)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("pass-through dInput volume mismatch", func(t *testing.T) {
		dOutput := fromSlice(t, make([]float32, 4), tensor.Shape{1, 1, 2, 2})
		dInput := newTensor(t, tensor.Shape{1, 1, 3, 2}, tensor.Float32, tensor.CPU)
		err := op.Backward(dInput, nil, nil, input, nil, dOutput)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})
}

func TestFullyConnected_DeviceAndDTypeDispatch(t *testing.T) {
	ctx := engine.New()
	op := NewFullyConnected(ctx)

	t.Run("device mismatch leaves output untouched", func(t *testing.T) {
		input := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.WebGPU)
		output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
		poison := output.AsFloat32()
		for i := range poison {
			poison[i] = 42
		}

		err := op.Forward(output, input, nil, nil)
		require.ErrorIs(t, err, tensor.ErrInvalidArgument)
		for i, p := range output.AsFloat32() {
			require.Equal(t, float32(42), p, "output element %d written on failed call", i)
		}
	})

	t.Run("dtype mismatch", func(t *testing.T) {
		input := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
		output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
		err := op.Forward(output, input, nil, nil)
		assert.ErrorIs(t, err, tensor.ErrInvalidArgument)
	})

	t.Run("unregistered device", func(t *testing.T) {
		input := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CUDA)
		output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CUDA)
		err := op.Forward(output, input, nil, nil)
		assert.ErrorIs(t, err, tensor.ErrUnsupported)
		assert.ErrorIs(t, ctx.LastError(), tensor.ErrUnsupported)
	})

	t.Run("float64 stays on the cpu", func(t *testing.T) {
		input := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.WebGPU)
		output := newTensor(t, tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.WebGPU)
		err := op.Forward(output, input, nil, nil)
		assert.ErrorIs(t, err, tensor.ErrUnsupported)
	})
}

// TestFullyConnected_BackendFailureIsRecorded checks fail-fast propagation:
// a backend fault surfaces as ErrBackendFailure on the call and on the
// context's last-error slot.
func TestFullyConnected_BackendFailureIsRecorded(t *testing.T) {
	ctx := engine.New()
	mock := tensor.NewMockBackend(tensor.CPU)
	mock.Err = fmt.Errorf("device lost: %w", tensor.ErrBackendFailure)
	ctx.Register(mock)
	op := NewFullyConnected(ctx)

	input := fromSlice(t, []float32{1, 2}, tensor.Shape{1, 1, 1, 2})
	filter := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	output := newTensor(t, tensor.Shape{1, 1, 1, 2}, tensor.Float32, tensor.CPU)

	err := op.Forward(output, input, filter, nil)
	require.ErrorIs(t, err, tensor.ErrBackendFailure)
	assert.ErrorIs(t, ctx.LastError(), tensor.ErrBackendFailure)

	ctx.ClearLastError()
	dBias := newTensor(t, tensor.Shape{1}, tensor.Float32, tensor.CPU)
	err = op.Backward(nil, nil, dBias, input, filter, fromSlice(t, []float32{1, 1}, tensor.Shape{1, 1, 1, 2}))
	require.ErrorIs(t, err, tensor.ErrBackendFailure)
	assert.ErrorIs(t, ctx.LastError(), tensor.ErrBackendFailure)
}
