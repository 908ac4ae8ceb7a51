package surface

import (
	"math"

	vm "surface3d/vector_math"
)

// Default grid of the half sphere.
const (
	DefaultU = 32
	DefaultV = 128
)

// HalfSphere sweeps the upper unit hemisphere: s runs from the pole at
// (0,0,1) down to the equator, t goes once around the z axis. The row s=0
// collapses to the pole.
func HalfSphere(s, t float64) vm.Vec3 {
	return vm.Vec3{
		X: (-math.Sin(0.5 * math.Pi * s)) * (-math.Sin(2 * math.Pi * t)),
		Y: (-math.Sin(0.5 * math.Pi * s)) * math.Cos(2*math.Pi*t),
		Z: math.Cos(0.5 * math.Pi * s),
	}
}

// Plane is the flat patch [-1,1]x[-1,1] in the z=0 plane.
func Plane(s, t float64) vm.Vec3 {
	return vm.Vec3{X: 2*s - 1, Y: 2*t - 1}
}

// Transformed applies the homogeneous 4x4 matrix m to every point of fn.
func Transformed(fn Func, m vm.Mat) Func {
	return func(s, t float64) vm.Vec3 {
		return vm.Apply(fn(s, t), 1, m)
	}
}

// Named returns a built-in surface function by name.
func Named(name string) (Func, bool) {
	switch name {
	case "halfsphere", "half_sphere":
		return HalfSphere, true
	case "plane":
		return Plane, true
	}
	return nil, false
}
