// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor descriptor and device facade for the
// Weft kernel library.
//
// # Overview
//
// Tensors are host-backed byte buffers described by a 4-D shape
// (width, height, depth, size), a numeric kind and a device tag. The
// package provides:
//   - Tensor: the descriptor every kernel operates on
//   - Shape: dense row-major extents, width fastest
//   - Backend: the linear-algebra facade compute devices implement
//   - The closed error taxonomy all operations report from
//
// # Basic Usage
//
//	import (
//	    "github.com/weft-ml/weft/tensor"
//	)
//
//	func main() {
//	    x, err := tensor.New(tensor.Shape{28, 28, 3, 16}, tensor.Float32, tensor.CPU)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    data := x.AsFloat32() // typed view, no copy
//	    _ = data
//	}
//
// # Error Handling
//
// Every fallible operation returns one of four sentinels, possibly
// wrapped with the failing operation's name: ErrOutOfMemory,
// ErrInvalidArgument, ErrBackendFailure, ErrUnsupported. Test the kind
// with errors.Is; wrapping never changes it.
package tensor
