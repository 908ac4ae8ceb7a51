package surface

import vm "surface3d/vector_math"

// FaceNormal returns the unit normal of a quad from the cross product of its
// diagonals. Degenerate quads (both diagonals parallel or collapsed) give the
// zero vector.
func FaceNormal(verts []vm.Vec3, q Quad) vm.Vec3 {
	d1 := verts[q[2]].Sub(verts[q[0]])
	d2 := verts[q[3]].Sub(verts[q[1]])
	return d1.Cross(d2).Norm()
}

// VertexNormals averages the normals of all faces touching a vertex, the
// normals a smooth shaded quad mesh is lit with. Vertices no face
// contributes to keep a zero normal.
func VertexNormals(verts []vm.Vec3, faces []Quad) []vm.Vec3 {
	normals := make([]vm.Vec3, len(verts))
	for _, q := range faces {
		n := FaceNormal(verts, q)
		for _, k := range q {
			normals[k] = normals[k].Add(n)
		}
	}
	for k := range normals {
		normals[k] = normals[k].Norm()
	}
	return normals
}
