// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/weft-ml/weft/internal/engine"
	"github.com/weft-ml/weft/internal/nn"
)

// FullyConnected computes dense forward and backward passes over batched
// samples through the device facade.
type FullyConnected = nn.FullyConnected

// NewFullyConnected creates the operator bound to ctx.
//
// Example:
//
//	ctx := engine.New()
//	fc := nn.NewFullyConnected(ctx)
func NewFullyConnected(ctx *engine.Context) *FullyConnected {
	return nn.NewFullyConnected(ctx)
}

// Conv computes 2-D convolution by lowering each sample onto the patch
// transform and a GEMM. Stride, padding and dilation are exported fields
// adjusted after construction.
type Conv = nn.Conv

// NewConv creates the operator bound to ctx with the given window and
// unit stride and dilation.
//
// Example:
//
//	ctx := engine.New()
//	conv := nn.NewConv(ctx, 3, 3)
//	conv.StrideX, conv.StrideY = 2, 2
//	conv.PadLeft, conv.PadTop = 1, 1
func NewConv(ctx *engine.Context, windowWidth, windowHeight int) *Conv {
	return nn.NewConv(ctx, windowWidth, windowHeight)
}
