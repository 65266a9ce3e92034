// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural-network operators built on the Weft
// kernels.
//
// # Overview
//
// This package contains:
//   - FullyConnected: dense forward and backward over batched samples
//   - Conv: 2-D convolution lowered onto the patch transform and GEMM
//
// Operators are configured once and invoked with explicit output tensors;
// they never allocate the caller's results. Gradient slots on Backward
// are optional: pass empty tensors for the gradients not needed.
//
// # Basic Usage
//
//	import (
//	    "github.com/weft-ml/weft/engine"
//	    "github.com/weft-ml/weft/nn"
//	    "github.com/weft-ml/weft/tensor"
//	)
//
//	func main() {
//	    ctx := engine.New()
//	    fc := nn.NewFullyConnected(ctx)
//
//	    input, _ := tensor.New(tensor.Shape{784, 1, 1, 32}, tensor.Float32, tensor.CPU)
//	    filter, _ := tensor.New(tensor.Shape{784, 1, 1, 10}, tensor.Float32, tensor.CPU)
//	    output, _ := tensor.New(tensor.Shape{10, 1, 1, 32}, tensor.Float32, tensor.CPU)
//
//	    if err := fc.Forward(output, input, filter, nil); err != nil {
//	        log.Fatal(err)
//	    }
//	}
package nn
