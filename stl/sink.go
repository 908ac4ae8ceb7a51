package stl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"surface3d/model"
	"surface3d/surface"
	vm "surface3d/vector_math"
)

// ErrSinkFull is returned when a second mesh is sent to a binary STL sink.
var ErrSinkFull = errors.New("binary stl holds a single mesh")

// Sink writes meshes to w as STL, with vertices moved to the mesh origin.
// A binary sink takes one mesh per writer; an ASCII sink appends one solid
// per mesh.
type Sink struct {
	mu      sync.Mutex
	w       io.Writer
	ascii   bool
	written int
	log     *zap.Logger
}

func NewSink(w io.Writer, ascii bool, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{w: w, ascii: ascii, log: log}
}

func (s *Sink) CreateMesh(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []model.Edge, faces []surface.Quad) (*model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.CheckFaces(len(verts), faces); err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}
	m := model.NewModel(name, origin, verts, edges, faces)
	m.SetSmooth(true)

	write := Write
	if s.ascii {
		write = WriteASCII
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ascii && s.written > 0 {
		return nil, fmt.Errorf("writing stl for %q: %w", name, ErrSinkFull)
	}
	if err := write(s.w, name, m.WorldVertices(), faces); err != nil {
		return nil, fmt.Errorf("writing stl for %q: %w", name, err)
	}
	s.written++
	s.log.Debug("stl written", zap.String("name", name), zap.Bool("ascii", s.ascii), zap.Int("faces", len(faces)))
	return m, nil
}
