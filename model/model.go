package model

import (
	"surface3d/surface"
	vm "surface3d/vector_math"
)

// Edge connects two vertex indices. Edges are undirected, the smaller index
// comes first.
type Edge [2]int

// Model is a mesh object as it is registered with a scene: the sampled
// geometry, where it is placed and how its faces are shaded.
type Model struct {
	ID       string
	Name     string
	Origin   vm.Vec3
	Vertices []vm.Vec3
	Edges    []Edge
	Faces    []surface.Quad
	// Smooth holds one shading flag per face.
	Smooth   []bool
	ModelMat vm.Mat
}

func NewModel(name string, origin vm.Vec3, verts []vm.Vec3, edges []Edge, faces []surface.Quad) *Model {
	m := &Model{
		Name:     name,
		Origin:   origin,
		Vertices: verts,
		Edges:    edges,
		Faces:    faces,
		Smooth:   make([]bool, len(faces)),
		ModelMat: vm.NewTranslation(origin),
	}
	return m
}

// SetSmooth sets the shading flag of every face.
func (m *Model) SetSmooth(smooth bool) {
	for i := range m.Smooth {
		m.Smooth[i] = smooth
	}
}

// WorldVertices returns the vertices moved to the model's origin.
func (m *Model) WorldVertices() []vm.Vec3 {
	out := make([]vm.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = vm.Apply(v, 1, m.ModelMat)
	}
	return out
}
