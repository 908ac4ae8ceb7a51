package model

import "surface3d/surface"

// EdgesFromFaces derives the unique edges implied by the quad boundaries, in
// the order they are first seen. Hosts that receive an empty edge list build
// the same set.
func EdgesFromFaces(faces []surface.Quad) []Edge {
	seen := make(map[Edge]struct{}, 2*len(faces))
	edges := make([]Edge, 0, 2*len(faces))
	for _, q := range faces {
		for c := range q {
			e := newEdge(q[c], q[(c+1)%len(q)])
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

func newEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}
