package earth

import (
	"fmt"
	"math"
	"strings"

	"github.com/echoflaresat/eclipse/vectors"
)

// Earth radii in km.
const (
	MeanRadius       = 6371.0088
	EquatorialRadius = 6378.1370
	PolarRadius      = 6356.7523
)

// Model is an Earth surface shape that rays can be cast against.
type Model interface {
	// RayIntersection returns the point where the ray (origin, unit dir)
	// enters the surface. ok is false when the ray misses or points away.
	RayIntersection(origin, dir vectors.Vec3) (point vectors.Vec3, ok bool)
	// SurfaceToGeodetic converts a surface point to latitude/longitude.
	SurfaceToGeodetic(p vectors.Vec3) LatLon
	// GeodeticToSurface is the inverse of SurfaceToGeodetic.
	GeodeticToSurface(c LatLon) vectors.Vec3
	Name() string
}

// LatLon is a geodetic position in radians, longitude positive east.
type LatLon struct {
	Lat, Lon float64
}

// Degrees returns the position in degrees.
func (c LatLon) Degrees() (lat, lon float64) {
	return c.Lat * 180 / math.Pi, c.Lon * 180 / math.Pi
}

func (c LatLon) String() string {
	lat, lon := c.Degrees()
	return fmt.Sprintf("(%.4f°, %.4f°)", lat, lon)
}

// Default models.
var (
	DefaultSphere    = Sphere{Radius: MeanRadius}
	DefaultEllipsoid = Ellipsoid{Equatorial: EquatorialRadius, Polar: PolarRadius, Mean: MeanRadius}
)

// ModelByName resolves "sphere" or "ellipsoid" to the default model.
func ModelByName(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sphere":
		return DefaultSphere, nil
	case "ellipsoid", "":
		return DefaultEllipsoid, nil
	}
	return nil, fmt.Errorf("unknown earth model %q", name)
}

// longitude returns the signed angle of (x, y) from the +X axis,
// 0 on the polar axis.
func longitude(x, y float64) float64 {
	f := math.Sqrt(x*x + y*y)
	if f == 0 {
		return 0
	}
	lon := math.Acos(clamp(x/f, -1, 1))
	if y < 0 {
		return -lon
	}
	return lon
}

// clamp clamps x into the inclusive range [min, max].
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
