package im2row

import (
	"errors"
	"testing"

	"github.com/weft-ml/weft/internal/tensor"
)

func TestGeometry_NumPatches(t *testing.T) {
	tests := []struct {
		name     string
		geom     Geometry
		npx, npy int
	}{
		{
			name: "unit stride no padding",
			geom: NewGeometry(5, 5, 1, 2, 2),
			npx:  4, npy: 4,
		},
		{
			name: "stride two",
			geom: func() Geometry {
				g := NewGeometry(5, 5, 1, 3, 3)
				g.StrideX, g.StrideY = 2, 2
				return g
			}(),
			npx: 2, npy: 2,
		},
		{
			name: "stride two with padding",
			geom: func() Geometry {
				g := NewGeometry(5, 5, 1, 3, 3)
				g.StrideX, g.StrideY = 2, 2
				g.PadLeft, g.PadRight, g.PadTop, g.PadBottom = 1, 1, 1, 1
				return g
			}(),
			npx: 3, npy: 3,
		},
		{
			name: "dilation widens the window extent",
			geom: func() Geometry {
				g := NewGeometry(5, 5, 1, 3, 3)
				g.DilateX, g.DilateY = 2, 2
				return g
			}(),
			npx: 1, npy: 1,
		},
		{
			name: "stride larger than leftover span",
			geom: func() Geometry {
				g := NewGeometry(4, 4, 1, 3, 3)
				g.StrideX, g.StrideY = 3, 3
				return g
			}(),
			npx: 1, npy: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.geom.NumPatchesX(); got != tt.npx {
				t.Errorf("NumPatchesX() = %d, want %d", got, tt.npx)
			}
			if got := tt.geom.NumPatchesY(); got != tt.npy {
				t.Errorf("NumPatchesY() = %d, want %d", got, tt.npy)
			}
			if got := tt.geom.NumPatches(); got != tt.npx*tt.npy {
				t.Errorf("NumPatches() = %d, want %d", got, tt.npx*tt.npy)
			}
		})
	}
}

func TestGeometry_NumRows(t *testing.T) {
	g := NewGeometry(8, 8, 3, 2, 4)
	if got := g.NumRows(); got != 2*4*3 {
		t.Errorf("NumRows() = %d, want %d", got, 2*4*3)
	}
}

func TestGeometry_WindowExtent(t *testing.T) {
	g := NewGeometry(10, 10, 1, 3, 2)
	g.DilateX, g.DilateY = 2, 3
	if got := g.WindowExtentX(); got != 5 {
		t.Errorf("WindowExtentX() = %d, want 5", got)
	}
	if got := g.WindowExtentY(); got != 4 {
		t.Errorf("WindowExtentY() = %d, want 4", got)
	}
}

func TestGeometry_Validate(t *testing.T) {
	valid := NewGeometry(5, 5, 2, 3, 3)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid geometry: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Geometry)
	}{
		{"zero width", func(g *Geometry) { g.Width = 0 }},
		{"negative height", func(g *Geometry) { g.Height = -1 }},
		{"zero depth", func(g *Geometry) { g.Depth = 0 }},
		{"zero window width", func(g *Geometry) { g.WindowWidth = 0 }},
		{"zero window height", func(g *Geometry) { g.WindowHeight = 0 }},
		{"zero stride", func(g *Geometry) { g.StrideX = 0 }},
		{"zero dilation", func(g *Geometry) { g.DilateY = 0 }},
		{"negative padding", func(g *Geometry) { g.PadLeft = -1 }},
		{"window overflows padded volume", func(g *Geometry) { g.WindowWidth = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			err := g.Validate()
			if !errors.Is(err, tensor.ErrInvalidArgument) {
				t.Errorf("Validate() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

// The interval math divides numerators that go negative near the padded
// border; both helpers must round consistently there, not truncate.
func TestDivisionRounding(t *testing.T) {
	floorCases := []struct{ a, b, want int }{
		{7, 2, 3},
		{6, 2, 3},
		{0, 3, 0},
		{-1, 2, -1},
		{-2, 2, -1},
		{-3, 2, -2},
		{-7, 3, -3},
	}
	for _, c := range floorCases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}

	ceilCases := []struct{ a, b, want int }{
		{7, 2, 4},
		{6, 2, 3},
		{0, 3, 0},
		{-1, 2, 0},
		{-2, 2, -1},
		{-3, 2, -1},
		{-7, 3, -2},
	}
	for _, c := range ceilCases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
