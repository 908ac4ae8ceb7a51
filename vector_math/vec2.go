package vector_math

// Vec2 is a point in the (s, t) parameter plane.
type Vec2 struct {
	X, Y float64
}
