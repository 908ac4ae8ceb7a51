package surface

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	vm "surface3d/vector_math"
)

// SampleParallel produces exactly the output of Sample while evaluating the
// rows of the grid on up to workers goroutines. workers <= 0 uses GOMAXPROCS.
// On cancellation the context error is returned and no vertices are.
func SampleParallel(ctx context.Context, fn Func, u, v int, workers int) ([]vm.Vec3, []Quad, error) {
	if fn == nil {
		return nil, nil, ErrNilFunc
	}
	g, err := NewGrid(u, v)
	if err != nil {
		return nil, nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	verts := make([]vm.Vec3, g.VertexCount())
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for j := 0; j <= g.V; j++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g.sampleRow(fn, j, verts[g.Index(0, j):g.Index(0, j+1)])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	// errgroup only reports errors from tasks; a cancel that lands after the
	// last task started would otherwise go unnoticed.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return verts, g.Faces(), nil
}
