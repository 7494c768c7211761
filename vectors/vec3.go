package vectors

import "math"

// Vec3 is a simple 3D vector with float64 components.
// Positions are Earth-centered and expressed in kilometers.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v · o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length ||v||.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector v / ||v||.
// The zero vector has no direction; it comes back unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	inv := 1.0 / n
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// RotateX rotates the Y/Z pair by angle radians:
// y' = y·cos + z·sin, z' = z·cos − y·sin.
func (v Vec3) RotateX(angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{v.X, v.Y*c + v.Z*s, v.Z*c - v.Y*s}
}

// RotateY rotates the X/Z pair by angle radians:
// x' = x·cos − z·sin, z' = z·cos + x·sin.
func (v Vec3) RotateY(angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{v.X*c - v.Z*s, v.Y, v.Z*c + v.X*s}
}

// RotateZ rotates the X/Y pair by angle radians:
// x' = x·cos + y·sin, y' = y·cos − x·sin.
func (v Vec3) RotateZ(angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{v.X*c + v.Y*s, v.Y*c - v.X*s, v.Z}
}

func Distance(v1, v2 Vec3) float64 {
	return v1.Sub(v2).Norm()
}
