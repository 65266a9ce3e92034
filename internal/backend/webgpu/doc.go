// Package webgpu implements the linear-algebra facade and the patch
// transform kernels as WebGPU compute dispatches. Uses go-webgpu
// (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// WGSL has no f64 type, so the backend serves float32 only; every float64
// entry point reports ErrUnsupported. The native wgpu runtime is wired on
// Windows; other platforms build a stub whose entry points report
// ErrUnsupported, so importing code stays portable.
package webgpu
