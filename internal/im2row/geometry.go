package im2row

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Geometry describes how patches are sampled from a source volume: the
// volume extents, the window shape, and the stride, padding and dilation
// applied along X and Y. Depth is never padded or strided.
type Geometry struct {
	Width  int
	Height int
	Depth  int

	WindowWidth  int
	WindowHeight int

	StrideX int
	StrideY int

	PadLeft   int
	PadRight  int
	PadTop    int
	PadBottom int

	DilateX int
	DilateY int
}

// NewGeometry returns a geometry with unit stride and dilation and no
// padding. Callers adjust fields as needed.
func NewGeometry(width, height, depth, windowWidth, windowHeight int) Geometry {
	return Geometry{
		Width:        width,
		Height:       height,
		Depth:        depth,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		StrideX:      1,
		StrideY:      1,
		DilateX:      1,
		DilateY:      1,
	}
}

// WindowExtentX is the width the window spans on the volume once dilation
// spreads its taps.
func (g Geometry) WindowExtentX() int { return (g.WindowWidth-1)*g.DilateX + 1 }

// WindowExtentY is the height the window spans on the volume.
func (g Geometry) WindowExtentY() int { return (g.WindowHeight-1)*g.DilateY + 1 }

// NumPatchesX is the number of patch positions along X. Floor division
// keeps the count exact when the padded extent is smaller than the window.
func (g Geometry) NumPatchesX() int {
	return floorDiv(g.Width+g.PadLeft+g.PadRight-g.WindowExtentX(), g.StrideX) + 1
}

// NumPatchesY is the number of patch positions along Y.
func (g Geometry) NumPatchesY() int {
	return floorDiv(g.Height+g.PadTop+g.PadBottom-g.WindowExtentY(), g.StrideY) + 1
}

// NumPatches is the number of patch positions, i.e. the patch-matrix
// column count.
func (g Geometry) NumPatches() int { return g.NumPatchesX() * g.NumPatchesY() }

// NumRows is the patch-matrix row count: one row per within-window offset
// (u, v, z).
func (g Geometry) NumRows() int { return g.WindowWidth * g.WindowHeight * g.Depth }

// Validate rejects degenerate geometry before any kernel touches memory:
// non-positive extents, window, stride or dilation, negative padding, or a
// negative patch count.
func (g Geometry) Validate() error {
	switch {
	case g.Width < 1 || g.Height < 1 || g.Depth < 1:
		return fmt.Errorf("volume %dx%dx%d: %w", g.Width, g.Height, g.Depth, tensor.ErrInvalidArgument)
	case g.WindowWidth < 1 || g.WindowHeight < 1:
		return fmt.Errorf("window %dx%d: %w", g.WindowWidth, g.WindowHeight, tensor.ErrInvalidArgument)
	case g.StrideX < 1 || g.StrideY < 1:
		return fmt.Errorf("stride %dx%d: %w", g.StrideX, g.StrideY, tensor.ErrInvalidArgument)
	case g.DilateX < 1 || g.DilateY < 1:
		return fmt.Errorf("dilation %dx%d: %w", g.DilateX, g.DilateY, tensor.ErrInvalidArgument)
	case g.PadLeft < 0 || g.PadRight < 0 || g.PadTop < 0 || g.PadBottom < 0:
		return fmt.Errorf("padding %d,%d,%d,%d: %w", g.PadLeft, g.PadRight, g.PadTop, g.PadBottom, tensor.ErrInvalidArgument)
	case g.NumPatchesX() < 0 || g.NumPatchesY() < 0:
		return fmt.Errorf("negative patch count %dx%d: %w", g.NumPatchesX(), g.NumPatchesY(), tensor.ErrInvalidArgument)
	}
	return nil
}

// floorDiv divides rounding toward negative infinity. The numerators in
// the interval math can be negative while b is always a positive stride.
func floorDiv(a, b int) int {
	if a >= 0 {
		return a / b
	}
	return (a - b + 1) / b
}

// ceilDiv divides rounding toward positive infinity.
func ceilDiv(a, b int) int {
	if a >= 0 {
		return (a + b - 1) / b
	}
	return a / b
}
