// Package eclipse derives the Moon's shadow on the Earth from Sun and Moon
// positions: where the shadow axis lands, whether the eclipse is total or
// annular there, and the outline of the umbra and penumbra.
package eclipse

import (
	"math"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/ephemeris"
	"github.com/echoflaresat/eclipse/vectors"
)

const (
	SunRadius  = 695780.0 // km
	MoonRadius = 1737.4   // km
	// DefaultSunDistance is used when a sample carries no Sun distance.
	DefaultSunDistance = 150e6 // km
)

// Type tells whether the umbra reaches the surface.
type Type int

const (
	Total Type = iota
	Annular
)

func (t Type) String() string {
	if t == Annular {
		return "ANULAR"
	}
	return "TOTAL"
}

// Shadow is where the shadow axis meets the Earth.
type Shadow struct {
	Location earth.LatLon
	Type     Type
	// Distance from the Moon's center to the surface point, km.
	Distance float64
}

// PositionFromGHADec returns the Earth-centered position of a body at the
// given Greenwich hour angle and declination (radians) and distance (km).
// GHA is measured westward, hence the negated Y term.
func PositionFromGHADec(gha, dec, dist float64) vectors.Vec3 {
	sinDec, cosDec := math.Sincos(dec)
	sinGHA, cosGHA := math.Sincos(gha)
	return vectors.Vec3{
		X: dist * cosDec * cosGHA,
		Y: -dist * cosDec * sinGHA,
		Z: dist * sinDec,
	}
}

// DistanceFromParallax converts a horizontal parallax (radians) to km.
func DistanceFromParallax(hp float64) float64 {
	return earth.MeanRadius / math.Tan(hp)
}

// Positions returns the Sun and Moon vectors for an ephemeris sample.
func Positions(s ephemeris.Sample) (sun, moon vectors.Vec3) {
	sunDist := s.SunDist
	if sunDist <= 0 {
		sunDist = DefaultSunDistance
	}
	moonDist := s.MoonDist
	if moonDist <= 0 {
		moonDist = DistanceFromParallax(s.MoonHP)
	}
	sun = PositionFromGHADec(s.SunGHA, s.SunDec, sunDist)
	moon = PositionFromGHADec(s.MoonGHA, s.MoonDec, moonDist)
	return sun, moon
}

// Engine casts shadow rays against an Earth model. Queries only read the
// engine and may run concurrently; SetEarthModel must not race with them.
type Engine struct {
	model      earth.Model
	SunRadius  float64
	MoonRadius float64
}

// New returns an engine for the given model; nil selects the default
// ellipsoid.
func New(model earth.Model) *Engine {
	if model == nil {
		model = earth.DefaultEllipsoid
	}
	return &Engine{
		model:      model,
		SunRadius:  SunRadius,
		MoonRadius: MoonRadius,
	}
}

func (e *Engine) SetEarthModel(m earth.Model) {
	if m == nil {
		m = earth.DefaultEllipsoid
	}
	e.model = m
}

func (e *Engine) EarthModel() earth.Model {
	return e.model
}

// UmbraApexDistance is the distance behind the Moon at which the umbra
// cone closes, for a Sun–Moon separation of sunMoonDist km.
func (e *Engine) UmbraApexDistance(sunMoonDist float64) float64 {
	return sunMoonDist * (e.SunRadius/(e.SunRadius-e.MoonRadius) - 1)
}

// ShadowCenter casts the shadow axis from the Moon, directed away from the
// Sun. ok is false when the axis misses the Earth.
func (e *Engine) ShadowCenter(sun, moon vectors.Vec3) (Shadow, bool) {
	dir := moon.Sub(sun).Normalize()
	point, ok := e.model.RayIntersection(moon, dir)
	if !ok {
		return Shadow{}, false
	}
	// distances are measured in world space, never in a model's scaled frame
	dist := vectors.Distance(point, moon)
	typ := Total
	if dist > e.UmbraApexDistance(vectors.Distance(sun, moon)) {
		typ = Annular
	}
	return Shadow{
		Location: e.model.SurfaceToGeodetic(point),
		Type:     typ,
		Distance: dist,
	}, true
}

// ShadowAt interpolates the table at time (ms) and returns the shadow
// center for that instant.
func (e *Engine) ShadowAt(table ephemeris.Table, time float64) (Shadow, bool, error) {
	s, err := ephemeris.Interpolate(table, time)
	if err != nil {
		return Shadow{}, false, err
	}
	shadow, ok := e.ShadowCenter(Positions(s))
	return shadow, ok, nil
}
