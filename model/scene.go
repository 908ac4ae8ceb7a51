package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

var ErrNotFound = errors.New("model not found")

// Scene is an in-memory MeshSink. It keeps every created model by name and
// treats the most recently created one as the active object.
type Scene struct {
	mu     sync.RWMutex
	models []*Model
	active *Model
	log    *zap.Logger
}

func NewScene(log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{log: log}
}

func (sc *Scene) CreateMesh(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []Edge, faces []surface.Quad) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckFaces(len(verts), faces); err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}

	m := NewModel(name, origin, verts, edges, faces)
	m.ID = uuid.NewString()
	m.SetSmooth(true)

	sc.mu.Lock()
	m.Name = sc.uniqueName(name)
	sc.models = append(sc.models, m)
	sc.active = m
	sc.mu.Unlock()

	sc.log.Info("mesh created",
		zap.String("name", m.Name),
		zap.String("id", m.ID),
		zap.Int("vertices", len(verts)),
		zap.Int("faces", len(faces)),
	)
	return m, nil
}

// uniqueName appends .001, .002, ... when name is taken. Caller holds mu.
func (sc *Scene) uniqueName(name string) string {
	if sc.find(name) == nil {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%03d", name, n)
		if sc.find(candidate) == nil {
			return candidate
		}
	}
}

func (sc *Scene) find(name string) *Model {
	for _, m := range sc.models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (sc *Scene) Find(name string) (*Model, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if m := sc.find(name); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Active returns the most recently created model that is still in the scene.
func (sc *Scene) Active() *Model {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.active
}

// Models returns a snapshot of all models in creation order.
func (sc *Scene) Models() []*Model {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return append([]*Model(nil), sc.models...)
}

// Remove drops the model with the given name from the scene.
func (sc *Scene) Remove(name string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for i, m := range sc.models {
		if m.Name != name {
			continue
		}
		sc.models = append(sc.models[:i], sc.models[i+1:]...)
		if sc.active == m {
			sc.active = nil
		}
		sc.log.Debug("mesh removed", zap.String("name", name))
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (sc *Scene) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.models = nil
	sc.active = nil
}

// CheckFaces verifies every face references valid, pairwise distinct vertices.
func CheckFaces(nVerts int, faces []surface.Quad) error {
	for n, q := range faces {
		for a := range q {
			if q[a] < 0 || q[a] >= nVerts {
				return fmt.Errorf("face %d references vertex %d of %d", n, q[a], nVerts)
			}
			for b := a + 1; b < len(q); b++ {
				if q[a] == q[b] {
					return fmt.Errorf("face %d repeats vertex %d", n, q[a])
				}
			}
		}
	}
	return nil
}
