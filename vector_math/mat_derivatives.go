package vector_math

import "math"

func NewUnitMat(s uint) Mat {
	um, _ := NewMat(s, s)
	for i := range um {
		um[i][i] = 1
	}
	return um
}

// NewRotation builds the rotation of rad radians around an arbitrary axis
// (Rodrigues). The axis does not need to be normalized.
func NewRotation(rad float64, axis Vec3) Mat {
	u := axis.Norm()
	cosT := math.Cos(rad)
	sinT := math.Sin(rad)
	rm := NewUnitMat(4)
	rm[0][0] = cosT + (u.X*u.X)*(1-cosT)
	rm[0][1] = (u.X*u.Y)*(1-cosT) - u.Z*sinT
	rm[0][2] = (u.X*u.Z)*(1-cosT) + u.Y*sinT

	rm[1][0] = (u.Y*u.X)*(1-cosT) + u.Z*sinT
	rm[1][1] = cosT + (u.Y*u.Y)*(1-cosT)
	rm[1][2] = (u.Y*u.Z)*(1-cosT) - u.X*sinT

	rm[2][0] = (u.Z*u.X)*(1-cosT) - u.Y*sinT
	rm[2][1] = (u.Z*u.Y)*(1-cosT) + u.X*sinT
	rm[2][2] = cosT + (u.Z*u.Z)*(1-cosT)

	return rm
}

func NewScale(s Vec3) Mat {
	sm := NewUnitMat(4)
	sm[0][0] = s.X
	sm[1][1] = s.Y
	sm[2][2] = s.Z
	return sm
}

func NewTranslation(t Vec3) Mat {
	tm := NewUnitMat(4)
	tm[0][3] = t.X
	tm[1][3] = t.Y
	tm[2][3] = t.Z
	return tm
}

// NewPlacement scales a point, rotates it by the angles in rotDeg (degrees,
// about x first, then y, then z) and finally moves it by move.
func NewPlacement(scale, rotDeg, move Vec3) Mat {
	m := NewTranslation(move)
	m, _ = m.Rotate(ToRad(rotDeg.Z), Vec3{Z: 1})
	m, _ = m.Rotate(ToRad(rotDeg.Y), Vec3{Y: 1})
	m, _ = m.Rotate(ToRad(rotDeg.X), Vec3{X: 1})
	m, _ = m.Scale(scale)
	return m
}
