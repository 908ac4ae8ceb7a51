package gpu

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"surface3d/model"
	"surface3d/surface"
	vm "surface3d/vector_math"
)

// Sink packs every mesh it receives and keeps the buffers by model name
// until a renderer picks them up.
type Sink struct {
	mu      sync.Mutex
	buffers map[string]*Buffers
	log     *zap.Logger
}

func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{buffers: map[string]*Buffers{}, log: log}
}

// CreateMesh packs a mesh whose parameter grid is unknown; its texture
// coordinates stay zero.
func (s *Sink) CreateMesh(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []model.Edge, faces []surface.Quad) (*model.Model, error) {
	return s.create(ctx, name, origin, verts, edges, faces, nil)
}

// CreateGridMesh packs a mesh sampled on g, using the (s, t) parameters of
// each vertex as its texture coordinate.
func (s *Sink) CreateGridMesh(ctx context.Context, name string, origin vm.Vec3, g surface.Grid, verts []vm.Vec3, faces []surface.Quad) (*model.Model, error) {
	if len(verts) != g.VertexCount() {
		return nil, fmt.Errorf("creating %q: %d vertices on a %dx%d grid", name, len(verts), g.U, g.V)
	}
	return s.create(ctx, name, origin, verts, nil, faces, GridUV(g))
}

func (s *Sink) create(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []model.Edge, faces []surface.Quad, uv []vm.Vec2) (*model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.CheckFaces(len(verts), faces); err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}
	m := model.NewModel(name, origin, verts, edges, faces)
	m.SetSmooth(true)
	b := Pack(m.WorldVertices(), faces, uv)

	s.mu.Lock()
	s.buffers[name] = b
	s.mu.Unlock()

	s.log.Debug("mesh packed",
		zap.String("name", name),
		zap.Bool("texcoords", uv != nil),
		zap.Int("vertexBytes", b.VertexBufferSize()),
		zap.Int("indexBytes", b.IndexBufferSize()),
	)
	return m, nil
}

// Buffers returns the packed buffers of the named mesh.
func (s *Sink) Buffers(name string) (*Buffers, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[name]
	return b, ok
}
