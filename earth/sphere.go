package earth

import (
	"math"

	"github.com/echoflaresat/eclipse/vectors"
)

// Sphere is a spherical Earth of the given radius (km).
type Sphere struct {
	Radius float64
}

func (s Sphere) Name() string { return "sphere" }

// RayIntersection intersects the ray O + t*D with the sphere and returns the
// entry point. Rays whose closest approach lies behind the origin, or passes
// outside the sphere, miss.
func (s Sphere) RayIntersection(origin, dir vectors.Vec3) (vectors.Vec3, bool) {
	// Closest approach of the ray to the Earth center.
	tMid := -origin.Dot(dir)
	if tMid < 0 {
		return vectors.Vec3{}, false
	}
	midDist := origin.Add(dir.Scale(tMid)).Norm()
	if midDist > s.Radius {
		return vectors.Vec3{}, false
	}
	offset := math.Sqrt(s.Radius*s.Radius - midDist*midDist)
	return origin.Add(dir.Scale(tMid - offset)), true
}

// SurfaceToGeodetic returns the geocentric latitude and longitude of p.
func (s Sphere) SurfaceToGeodetic(p vectors.Vec3) LatLon {
	n := p.Normalize()
	return LatLon{
		Lat: math.Asin(clamp(n.Z, -1, 1)),
		Lon: longitude(n.X, n.Y),
	}
}

func (s Sphere) GeodeticToSurface(c LatLon) vectors.Vec3 {
	sinLat, cosLat := math.Sincos(c.Lat)
	sinLon, cosLon := math.Sincos(c.Lon)
	return vectors.Vec3{
		X: s.Radius * cosLat * cosLon,
		Y: s.Radius * cosLat * sinLon,
		Z: s.Radius * sinLat,
	}
}
