package model

import (
	"context"
	"errors"
	"fmt"

	"surface3d/authoring"
	"surface3d/surface"
	vm "surface3d/vector_math"
)

// MeshSink is the mesh construction collaborator. It turns a vertex list,
// an optional edge list and quad faces into a mesh object placed at origin,
// shades all faces smooth and registers the object for display.
type MeshSink interface {
	CreateMesh(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []Edge, faces []surface.Quad) (*Model, error)
}

// GridSink is a MeshSink that also wants the parameter grid the vertices
// were sampled on, e.g. to derive texture coordinates. Build calls
// CreateGridMesh instead of CreateMesh on such sinks.
type GridSink interface {
	MeshSink
	CreateGridMesh(ctx context.Context, name string, origin vm.Vec3, g surface.Grid, verts []vm.Vec3, faces []surface.Quad) (*Model, error)
}

// Params describes one surface to build.
type Params struct {
	Name   string
	Origin vm.Vec3
	Func   surface.Func
	U, V   int
	// Transform, if set, is applied to every sampled point.
	Transform vm.Mat
	// Workers > 1 samples rows concurrently.
	Workers int
}

// Build samples the surface and hands the result to sink with an empty edge
// list, leaving the edges implied by the faces.
func Build(ctx context.Context, sink MeshSink, p Params) (*Model, error) {
	g, err := surface.NewGrid(p.U, p.V)
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", p.Name, err)
	}
	fn := p.Func
	if fn != nil && p.Transform != nil {
		fn = surface.Transformed(fn, p.Transform)
	}

	var (
		verts []vm.Vec3
		faces []surface.Quad
	)
	if p.Workers > 1 {
		verts, faces, err = surface.SampleParallel(ctx, fn, g.U, g.V, p.Workers)
	} else {
		verts, faces, err = surface.Sample(fn, g.U, g.V)
	}
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", p.Name, err)
	}
	if gs, ok := sink.(GridSink); ok {
		return gs.CreateGridMesh(ctx, p.Name, p.Origin, g, verts, faces)
	}
	return sink.CreateMesh(ctx, p.Name, p.Origin, verts, nil, faces)
}

// BuildRecord compiles an authoring record and builds it at the record's
// own resolution. p supplies name, origin, transform and workers; its Func,
// U and V are replaced. Inactive records are rejected with
// authoring.ErrInactive.
func BuildRecord(ctx context.Context, sink MeshSink, p Params, rec *authoring.Record) (*Model, error) {
	if rec == nil {
		return nil, errors.New("nil authoring record")
	}
	if !rec.IsActive() {
		return nil, fmt.Errorf("record for %q: %w", p.Name, authoring.ErrInactive)
	}
	u, v, err := rec.Resolution()
	if err != nil {
		return nil, err
	}
	fn, err := rec.Compile(ctx)
	if err != nil {
		return nil, err
	}
	p.Func, p.U, p.V = fn, u, v
	return Build(ctx, sink, p)
}
