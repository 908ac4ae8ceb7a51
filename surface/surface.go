// Package surface samples parametric surfaces over a regular (s, t) grid and
// turns the samples into a row-major vertex list plus a quad face list.
//
// Vertex (i, j) of a U x V grid sits at flat index (U+1)*j + i and is the
// image of s = i/U, t = j/V. Faces never wrap around either parameter, so a
// surface that is closed along t keeps a seam of coincident but unconnected
// vertices.
package surface

import (
	"errors"
	"fmt"

	vm "surface3d/vector_math"
)

var (
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrNilFunc           = errors.New("nil surface function")
)

// Func maps the normalized parameters s, t in [0,1] to a point in space.
// Implementations must be pure: SampleParallel calls them concurrently.
type Func func(s, t float64) vm.Vec3

// Quad holds four vertex indices in the order (i,j), (i+1,j), (i+1,j+1), (i,j+1).
type Quad [4]int

// Grid is a validated pair of step counts.
type Grid struct {
	U, V int
}

func NewGrid(u, v int) (Grid, error) {
	if u < 0 || v < 0 {
		return Grid{}, fmt.Errorf("%w: u=%d v=%d, step counts must not be negative", ErrInvalidResolution, u, v)
	}
	return Grid{U: u, V: v}, nil
}

func (g Grid) VertexCount() int {
	return (g.U + 1) * (g.V + 1)
}

func (g Grid) FaceCount() int {
	return g.U * g.V
}

// Index returns the flat vertex index of grid column i in row j.
func (g Grid) Index(i, j int) int {
	return (g.U+1)*j + i
}

// Params returns the surface parameters of grid point (i, j). A zero step
// count pins its parameter to 0.
func (g Grid) Params(i, j int) (s, t float64) {
	if g.U > 0 {
		s = float64(i) / float64(g.U)
	}
	if g.V > 0 {
		t = float64(j) / float64(g.V)
	}
	return s, t
}

// sampleRow fills one row of the vertex grid. dst must hold U+1 entries.
func (g Grid) sampleRow(fn Func, j int, dst []vm.Vec3) {
	for i := 0; i <= g.U; i++ {
		dst[i] = fn(g.Params(i, j))
	}
}

// Faces builds the quad list of the grid.
func (g Grid) Faces() []Quad {
	faces := make([]Quad, 0, g.FaceCount())
	for j := 0; j < g.V; j++ {
		for i := 0; i < g.U; i++ {
			k := g.Index(i, j)
			faces = append(faces, Quad{k, k + 1, k + g.U + 2, k + g.U + 1})
		}
	}
	return faces
}

// Sample evaluates fn on every grid point, row by row, and returns the vertex
// list together with the quad faces connecting it.
func Sample(fn Func, u, v int) ([]vm.Vec3, []Quad, error) {
	if fn == nil {
		return nil, nil, ErrNilFunc
	}
	g, err := NewGrid(u, v)
	if err != nil {
		return nil, nil, err
	}
	verts, faces := g.Mesh(fn)
	return verts, faces, nil
}

// Mesh samples fn over an already validated grid.
func (g Grid) Mesh(fn Func) ([]vm.Vec3, []Quad) {
	verts := make([]vm.Vec3, g.VertexCount())
	for j := 0; j <= g.V; j++ {
		g.sampleRow(fn, j, verts[g.Index(0, j):g.Index(0, j+1)])
	}
	return verts, g.Faces()
}
