package vector_math

import "math"

// ToRad is a helper function to turn degree to radians
func ToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Apply multiplies a vec3 by a 4x4 matrix using a homogeneous coordinate
// that can be specified. w=1 treats v as a point, w=0 as a direction. The w
// of the result is dropped.
func Apply(v Vec3, w float64, m Mat) Vec3 {
	v4 := [4]float64{v.X, v.Y, v.Z, w}
	var out [3]float64
	for r := range out {
		for c, x := range v4 {
			out[r] += m[r][c] * x
		}
	}
	return Vec3{X: out[0], Y: out[1], Z: out[2]}
}
