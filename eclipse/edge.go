package eclipse

import (
	"math"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/vectors"
)

// Edge selects the umbra or penumbra cone.
type Edge int

const (
	Umbra Edge = iota
	Penumbra
)

func (e Edge) String() string {
	if e == Penumbra {
		return "penumbra"
	}
	return "umbra"
}

// UmbraHalfAngle is the tilt of the converging umbra cone.
func (e *Engine) UmbraHalfAngle(sunMoonDist float64) float64 {
	return math.Asin((e.SunRadius - e.MoonRadius) / sunMoonDist)
}

// PenumbraHalfAngle is negative: the penumbra cone diverges.
func (e *Engine) PenumbraHalfAngle(sunMoonDist float64) float64 {
	return -math.Asin((e.SunRadius + e.MoonRadius) / sunMoonDist)
}

func (e *Engine) halfAngle(edge Edge, sunMoonDist float64) float64 {
	if edge == Penumbra {
		return e.PenumbraHalfAngle(sunMoonDist)
	}
	return e.UmbraHalfAngle(sunMoonDist)
}

// edgeRay builds the cone generator at azimuth. In the Moon-local frame +X
// points at the Sun; the limb point and the anti-Sun direction are tilted
// by the half angle, spun about the axis by azimuth, then aligned with the
// real Moon→Sun direction. The order of the rotations matters.
func (e *Engine) edgeRay(sun, moon vectors.Vec3, tilt, azimuth float64) (start, dir vectors.Vec3) {
	toSun := earth.DefaultSphere.SurfaceToGeodetic(sun.Sub(moon))

	start = vectors.Vec3{Z: e.MoonRadius}.
		RotateY(tilt).
		RotateX(azimuth).
		RotateY(toSun.Lat).
		RotateZ(-toSun.Lon).
		Add(moon)
	dir = vectors.Vec3{X: -1}.
		RotateY(tilt).
		RotateX(azimuth).
		RotateY(toSun.Lat).
		RotateZ(-toSun.Lon)
	return start, dir
}

// EdgePoint returns where the edge of the given cone meets the Earth at
// azimuth (radians about the shadow axis). ok is false when that edge ray
// misses; a sweep has a gap there.
func (e *Engine) EdgePoint(sun, moon vectors.Vec3, edge Edge, azimuth float64) (earth.LatLon, bool) {
	tilt := e.halfAngle(edge, vectors.Distance(sun, moon))
	start, dir := e.edgeRay(sun, moon, tilt, azimuth)
	point, ok := e.model.RayIntersection(start, dir)
	if !ok {
		return earth.LatLon{}, false
	}
	return e.model.SurfaceToGeodetic(point), true
}

func (e *Engine) UmbraEdgePoint(sun, moon vectors.Vec3, azimuth float64) (earth.LatLon, bool) {
	return e.EdgePoint(sun, moon, Umbra, azimuth)
}

func (e *Engine) PenumbraEdgePoint(sun, moon vectors.Vec3, azimuth float64) (earth.LatLon, bool) {
	return e.EdgePoint(sun, moon, Penumbra, azimuth)
}
