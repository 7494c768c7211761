package earth

import (
	"math"

	"github.com/echoflaresat/eclipse/vectors"
)

// Ellipsoid is an oblate spheroid with the given equatorial and polar radii.
// Mean is the radius of the sphere used for the scaled intersection; any
// positive value gives the same points.
type Ellipsoid struct {
	Equatorial float64
	Polar      float64
	Mean       float64
}

func (e Ellipsoid) Name() string { return "ellipsoid" }

func (e Ellipsoid) sphere() Sphere { return Sphere{Radius: e.Mean} }

// toSphere maps the spheroid onto the sphere of radius Mean.
func (e Ellipsoid) toSphere(v vectors.Vec3) vectors.Vec3 {
	eq := e.Mean / e.Equatorial
	po := e.Mean / e.Polar
	return vectors.Vec3{X: v.X * eq, Y: v.Y * eq, Z: v.Z * po}
}

func (e Ellipsoid) fromSphere(v vectors.Vec3) vectors.Vec3 {
	eq := e.Equatorial / e.Mean
	po := e.Polar / e.Mean
	return vectors.Vec3{X: v.X * eq, Y: v.Y * eq, Z: v.Z * po}
}

// RayIntersection scales the ray into the frame where the spheroid is a
// sphere, intersects there and scales the hit point back. The scaling keeps
// rays straight but not distances, so callers measure distances from the
// returned point.
func (e Ellipsoid) RayIntersection(origin, dir vectors.Vec3) (vectors.Vec3, bool) {
	p, ok := e.sphere().RayIntersection(e.toSphere(origin), e.toSphere(dir).Normalize())
	if !ok {
		return vectors.Vec3{}, false
	}
	return e.fromSphere(p), true
}

// SurfaceToGeodetic returns the geodetic latitude of p, measured along the
// normal of the meridian ellipse x²/Re² + z²/Rp² = 1:
//
//	tan φ = -dr/dz = z·Re² / (r·Rp²)
func (e Ellipsoid) SurfaceToGeodetic(p vectors.Vec3) LatLon {
	r := math.Sqrt(p.X*p.X + p.Y*p.Y)
	re2 := e.Equatorial * e.Equatorial
	rp2 := e.Polar * e.Polar
	return LatLon{
		Lat: math.Atan2(p.Z*re2, r*rp2),
		Lon: longitude(p.X, p.Y),
	}
}

// GeodeticToSurface goes through the parametric latitude
// tan β = (Rp/Re)·tan φ.
func (e Ellipsoid) GeodeticToSurface(c LatLon) vectors.Vec3 {
	sinLat, cosLat := math.Sincos(c.Lat)
	beta := math.Atan2(e.Polar*sinLat, e.Equatorial*cosLat)
	sinB, cosB := math.Sincos(beta)
	sinLon, cosLon := math.Sincos(c.Lon)
	return vectors.Vec3{
		X: e.Equatorial * cosB * cosLon,
		Y: e.Equatorial * cosB * sinLon,
		Z: e.Polar * sinB,
	}
}

// Flattening returns (Re - Rp) / Re.
func (e Ellipsoid) Flattening() float64 {
	return (e.Equatorial - e.Polar) / e.Equatorial
}
