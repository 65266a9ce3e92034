//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/im2row"
	"github.com/weft-ml/weft/internal/tensor"
)

func init() {
	im2row.RegisterExtract(tensor.WebGPU, tensor.Float32, extractKernel)
	im2row.RegisterAccumulate(tensor.WebGPU, tensor.Float32, accumulateKernel)
}

// gpuBackend resolves the context's WebGPU entry to this implementation.
// The patch transform needs the dispatch plumbing behind the facade, so a
// foreign backend registered under the WebGPU device cannot serve it.
func gpuBackend(ctx *engine.Context) (*Backend, error) {
	be, err := ctx.Backend(tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	gpu, ok := be.(*Backend)
	if !ok {
		return nil, fmt.Errorf("backend %q has no patch transform kernels: %w", be.Name(), tensor.ErrUnsupported)
	}
	return gpu, nil
}

func extractKernel(ctx *engine.Context, dst, src *tensor.Tensor, g im2row.Geometry) error {
	gpu, err := gpuBackend(ctx)
	if err != nil {
		return err
	}
	return gpu.runExtract(dst, src, g)
}

func accumulateKernel(ctx *engine.Context, dst, src *tensor.Tensor, g im2row.Geometry) error {
	gpu, err := gpuBackend(ctx)
	if err != nil {
		return err
	}
	return gpu.runAccumulate(dst, src, g)
}

// packGeometry encodes the uniform shared by the extract and accumulate
// shaders. The patch counts are precomputed on the host so the shaders
// never divide by stride twice. Sizes were validated, so the casts are
// safe.
func packGeometry(g im2row.Geometry) []byte {
	fields := []int{
		g.Width, g.Height, g.Depth,
		g.WindowWidth, g.WindowHeight,
		g.StrideX, g.StrideY,
		g.PadLeft, g.PadTop,
		g.DilateX, g.DilateY,
		g.NumPatchesX(), g.NumPatchesY(),
	}
	buf := make([]byte, len(fields)*4)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(f))
	}
	return buf
}

// runExtract fills the patch matrix dst from the volume src, one thread
// per matrix cell.
func (gpu *Backend) runExtract(dst, src *tensor.Tensor, g im2row.Geometry) error {
	shader := gpu.compileShader("extract", extractShader)
	pipeline := gpu.getOrCreatePipeline("extract", shader)

	srcSize := uint64(src.ByteSize())
	dstSize := uint64(dst.ByteSize())

	bufferSrc := gpu.createBuffer(src.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferSrc.Release()

	// Every cell is written, padding positions as literal zero, so the
	// matrix buffer starts uninitialized.
	bufferDst := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  dstSize,
	})
	defer bufferDst.Release()

	bufferParams := gpu.createUniformBuffer(packGeometry(g))
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := gpu.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc, 0, srcSize),
		wgpu.BufferBindingEntry(1, bufferDst, 0, dstSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 64),
	})
	defer bindGroup.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	cells := g.NumRows() * g.NumPatches()
	workgroups := uint32(math.Ceil(float64(cells) / float64(workgroupSize)))
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	resultData, err := gpu.readBuffer(bufferDst, dstSize)
	if err != nil {
		return err
	}
	copy(dst.Data(), resultData)
	return nil
}

// runAccumulate sums the patch matrix src onto the volume dst. The shader
// gathers per voxel, so each output cell is written exactly once and no
// atomics are needed.
func (gpu *Backend) runAccumulate(dst, src *tensor.Tensor, g im2row.Geometry) error {
	shader := gpu.compileShader("accumulate", accumulateShader)
	pipeline := gpu.getOrCreatePipeline("accumulate", shader)

	srcSize := uint64(src.ByteSize())
	dstSize := uint64(dst.ByteSize())

	bufferSrc := gpu.createBuffer(src.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferSrc.Release()

	// The gather overwrites every voxel, so the volume buffer starts
	// uninitialized.
	bufferDst := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  dstSize,
	})
	defer bufferDst.Release()

	bufferParams := gpu.createUniformBuffer(packGeometry(g))
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := gpu.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc, 0, srcSize),
		wgpu.BufferBindingEntry(1, bufferDst, 0, dstSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 64),
	})
	defer bindGroup.Release()

	encoder := gpu.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	voxels := g.Width * g.Height * g.Depth
	workgroups := uint32(math.Ceil(float64(voxels) / float64(workgroupSize)))
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	gpu.queue.Submit(cmdBuffer)

	resultData, err := gpu.readBuffer(bufferDst, dstSize)
	if err != nil {
		return err
	}
	copy(dst.Data(), resultData)
	return nil
}
