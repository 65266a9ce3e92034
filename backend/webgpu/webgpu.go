// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for the Weft linear-algebra
// facade and patch transform.
//
// The implementation runs WGSL compute shaders through go-webgpu's
// zero-CGO bindings. WGSL has no f64 type, so only float32 is served;
// float64 entry points report ErrUnsupported. The native runtime is
// wired on Windows; on other platforms New reports ErrUnsupported at
// runtime while the package still compiles, so callers can probe with
// IsAvailable and fall back to the CPU backend.
//
// Example:
//
//	import (
//	    "github.com/weft-ml/weft/backend/webgpu"
//	    "github.com/weft-ml/weft/engine"
//	)
//
//	func main() {
//	    ctx := engine.New()
//	    if webgpu.IsAvailable() {
//	        gpu, err := webgpu.New()
//	        if err != nil {
//	            log.Fatal(err)
//	        }
//	        defer gpu.Release()
//	        ctx.Register(gpu)
//	    }
//	}
package webgpu

import (
	internalwebgpu "github.com/weft-ml/weft/internal/backend/webgpu"
	"github.com/weft-ml/weft/tensor"
)

// Backend is the WebGPU implementation of the linear-algebra facade.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend on the system's high-performance adapter.
// Initialization failures report ErrBackendFailure; a missing native
// library or platform reports ErrUnsupported.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU device can be initialized on this
// system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
