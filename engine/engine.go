// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package engine provides the execution context Weft operators run
// against: per-device backends, the all-ones broadcast cache, and
// last-error bookkeeping.
//
// Example:
//
//	import (
//	    "github.com/weft-ml/weft/backend/webgpu"
//	    "github.com/weft-ml/weft/engine"
//	)
//
//	func main() {
//	    ctx := engine.New() // CPU backend registered
//	    if gpu, err := webgpu.New(); err == nil {
//	        defer gpu.Release()
//	        ctx.Register(gpu)
//	    }
//	}
//
// A Context is not safe for concurrent use; operations issued against the
// same context must be serialized by the caller.
package engine

import (
	internalengine "github.com/weft-ml/weft/internal/engine"
)

// Context carries the state kernel operations share.
type Context = internalengine.Context

// New creates a context with the CPU backend registered. Additional
// backends are attached with Register.
func New() *Context {
	return internalengine.New()
}
