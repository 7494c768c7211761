package track

import (
	"math"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/eclipse"
)

// Summary describes the central path of a trace.
type Summary struct {
	Points  int
	Visible int
	// First and Last are the table times of the first and last visible
	// points, NaN when the shadow never touches the Earth.
	First, Last float64
	PathLength  float64 // km along the surface
	MeanSpeed   float64 // km/s
	MaxSpeed    float64 // km/s
	Types       map[eclipse.Type]int
}

// Geoid returns the reference ellipsoid matching an Earth model, for
// surface distances.
func Geoid(m earth.Model) globe.Ellipsoid {
	switch m := m.(type) {
	case earth.Ellipsoid:
		return globe.Ellipsoid{Er: m.Equatorial, Fl: m.Flattening()}
	case earth.Sphere:
		return globe.Ellipsoid{Er: m.Radius}
	}
	return globe.Ellipsoid{Er: earth.MeanRadius}
}

// Summarize measures the path over consecutive visible points. A gap
// where the shadow leaves the Earth is not counted as distance.
func Summarize(points []Point, g globe.Ellipsoid) Summary {
	s := Summary{
		Points: len(points),
		First:  math.NaN(),
		Last:   math.NaN(),
		Types:  make(map[eclipse.Type]int),
	}

	var speeds []float64
	var prev *Point
	for i := range points {
		p := &points[i]
		if !p.Visible {
			prev = nil
			continue
		}
		s.Visible++
		s.Types[p.Shadow.Type]++
		if math.IsNaN(s.First) {
			s.First = p.Time
		}
		s.Last = p.Time

		if prev != nil {
			d := SurfaceDistance(g, prev.Shadow.Location, p.Shadow.Location)
			s.PathLength += d
			if dt := (p.Time - prev.Time) / 1000; dt > 0 {
				speeds = append(speeds, d/dt)
			}
		}
		prev = p
	}

	if len(speeds) > 0 {
		s.MeanSpeed = stat.Mean(speeds, nil)
		s.MaxSpeed = floats.Max(speeds)
	}
	return s
}

// SurfaceDistance is the distance in km between two positions on g.
func SurfaceDistance(g globe.Ellipsoid, a, b earth.LatLon) float64 {
	if a == b {
		return 0
	}
	return g.Distance(coord(a), coord(b))
}

// coord converts to meeus coordinates, where longitude is positive west.
func coord(c earth.LatLon) globe.Coord {
	return globe.Coord{Lat: unit.Angle(c.Lat), Lon: unit.Angle(-c.Lon)}
}
