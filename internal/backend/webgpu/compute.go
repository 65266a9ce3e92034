//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"gonum.org/v1/gonum/blas"

	"github.com/weft-ml/weft/internal/tensor"
)

// byteView reinterprets a float32 slice as its backing bytes without
// copying.
func byteView(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy conversion
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}

// transFlag encodes a transpose argument for a shader uniform. ConjTrans
// equals Trans for real element types.
func transFlag(t blas.Transpose) uint32 {
	if t == blas.NoTrans {
		return 0
	}
	return 1
}

// createBuffer creates a GPU buffer and uploads initial data through the
// MappedAtCreation range.
func (gpu *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer rounded up to the 16-byte
// alignment uniform bindings require.
func (gpu *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads a GPU buffer back to host memory through a staging
// buffer, since storage buffers cannot be mapped directly.
func (gpu *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(gpu.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %v: %w", err, tensor.ErrBackendFailure)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// runGemm dispatches the gemm shader. Arguments were validated by the
// caller. k == 0 degenerates to a host-side scale of c, so no zero-sized
// GPU buffer is ever created.
func (gpu *Backend) runGemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	if m == 0 || n == 0 {
		return nil
	}
	if k == 0 {
		if beta == 1 {
			return nil
		}
		for i := 0; i < m; i++ {
			row := c[i*ldc : i*ldc+n]
			if beta == 0 {
				clear(row)
			} else {
				for j := range row {
					row[j] *= beta
				}
			}
		}
		return nil
	}

	shader := gpu.compileShader("gemm", gemmShader)
	pipeline := gpu.getOrCreatePipeline("gemm", shader)

	aSize := uint64(len(a)) * 4
	bSize := uint64(len(b)) * 4
	cSize := uint64(len(c)) * 4

	bufferA := gpu.createBuffer(byteView(a), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()
	bufferB := gpu.createBuffer(byteView(b), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferB.Release()
	// c is uploaded so that beta != 0 reads the prior values and cells
	// outside the m x n window round-trip unchanged.
	bufferC := gpu.createBuffer(byteView(c), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferC.Release()

	// Params: m, n, k, lda, ldb, ldc, trans_a, trans_b, alpha, beta.
	// Dimensions were validated non-negative, so the casts are safe.
	params := make([]byte, 48)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(n))
	binary.LittleEndian.PutUint32(params[8:12], uint32(k))
	binary.LittleEndian.PutUint32(params[12:16], uint32(lda))
	binary.LittleEndian.PutUint32(params[16:20], uint32(ldb))
	binary.LittleEndian.PutUint32(params[20:24], uint32(ldc))
	binary.LittleEndian.PutUint32(params[24:28], transFlag(tA))
	binary.LittleEndian.PutUint32(params[28:32], transFlag(tB))
	binary.LittleEndian.PutUint32(params[32:36], math.Float32bits(alpha))
	binary.LittleEndian.PutUint32(params[36:40], math.Float32bits(beta))
	bufferParams := gpu.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := gpu.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, aSize),
		wgpu.BufferBindingEntry(1, bufferB, 0, bSize),
		wgpu.BufferBindingEntry(2, bufferC, 0, cSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 48),
	})
	defer bindGroup.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	// One thread per element of c, in 16x16 tiles.
	workgroupsX := uint32(math.Ceil(float64(n) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(m) / 16.0))
	computePass.DispatchWorkgroups(workgroupsX, workgroupsY, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	resultData, err := gpu.readBuffer(bufferC, cSize)
	if err != nil {
		return err
	}
	copy(byteView(c), resultData)
	return nil
}

// runGemv dispatches the gemv shader. Shader indices are unsigned, so
// only positive vector strides are served.
func (gpu *Backend) runGemv(tA blas.Transpose, m, n int, alpha float32, a []float32, lda int, x []float32, incX int, beta float32, y []float32, incY int) error {
	lenOut, lenIn := m, n
	if tA != blas.NoTrans {
		lenOut, lenIn = n, m
	}
	if lenOut == 0 {
		return nil
	}
	if incX < 1 || incY < 1 {
		return fmt.Errorf("webgpu: vector strides must be positive, got incX=%d incY=%d: %w", incX, incY, tensor.ErrUnsupported)
	}
	if lenIn == 0 {
		for i := 0; i < lenOut; i++ {
			if beta == 0 {
				y[i*incY] = 0
			} else {
				y[i*incY] *= beta
			}
		}
		return nil
	}

	shader := gpu.compileShader("gemv", gemvShader)
	pipeline := gpu.getOrCreatePipeline("gemv", shader)

	aSize := uint64(len(a)) * 4
	xSize := uint64(len(x)) * 4
	ySize := uint64(len(y)) * 4

	bufferA := gpu.createBuffer(byteView(a), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()
	bufferX := gpu.createBuffer(byteView(x), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferX.Release()
	bufferY := gpu.createBuffer(byteView(y), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferY.Release()

	// Params: m, n, lda, inc_x, inc_y, trans, alpha, beta.
	params := make([]byte, 32)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(n))
	binary.LittleEndian.PutUint32(params[8:12], uint32(lda))
	binary.LittleEndian.PutUint32(params[12:16], uint32(incX))
	binary.LittleEndian.PutUint32(params[16:20], uint32(incY))
	binary.LittleEndian.PutUint32(params[20:24], transFlag(tA))
	binary.LittleEndian.PutUint32(params[24:28], math.Float32bits(alpha))
	binary.LittleEndian.PutUint32(params[28:32], math.Float32bits(beta))
	bufferParams := gpu.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := gpu.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, aSize),
		wgpu.BufferBindingEntry(1, bufferX, 0, xSize),
		wgpu.BufferBindingEntry(2, bufferY, 0, ySize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 32),
	})
	defer bindGroup.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	workgroups := uint32((lenOut + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	resultData, err := gpu.readBuffer(bufferY, ySize)
	if err != nil {
		return err
	}
	copy(byteView(y), resultData)
	return nil
}

// runCopy dispatches the copy shader.
func (gpu *Backend) runCopy(n int, x []float32, incX int, y []float32, incY int) error {
	if n == 0 {
		return nil
	}
	if incX < 1 || incY < 1 {
		return fmt.Errorf("webgpu: vector strides must be positive, got incX=%d incY=%d: %w", incX, incY, tensor.ErrUnsupported)
	}

	shader := gpu.compileShader("copy", copyShader)
	pipeline := gpu.getOrCreatePipeline("copy", shader)

	xSize := uint64(len(x)) * 4
	ySize := uint64(len(y)) * 4

	bufferX := gpu.createBuffer(byteView(x), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferX.Release()
	// y round-trips so elements between strided writes stay intact.
	bufferY := gpu.createBuffer(byteView(y), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferY.Release()

	params := make([]byte, 12)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	binary.LittleEndian.PutUint32(params[4:8], uint32(incX))
	binary.LittleEndian.PutUint32(params[8:12], uint32(incY))
	bufferParams := gpu.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := gpu.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferX, 0, xSize),
		wgpu.BufferBindingEntry(1, bufferY, 0, ySize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	workgroups := uint32((n + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	resultData, err := gpu.readBuffer(bufferY, ySize)
	if err != nil {
		return err
	}
	copy(byteView(y), resultData)
	return nil
}
