package eclipse

import (
	"math"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/vectors"
)

// Segment is a contiguous run of outline points. Closed is set when the
// whole ring hit the Earth and the last point joins the first.
type Segment struct {
	Points   []earth.LatLon
	Azimuths []float64
	Closed   bool
}

// Outline sweeps steps azimuths over [0, 2π) and splits the ring wherever
// an edge ray misses, so that no polyline is drawn across a gap. A run that
// crosses azimuth 0 comes back as a single segment.
func (e *Engine) Outline(sun, moon vectors.Vec3, edge Edge, steps int) []Segment {
	if steps <= 0 {
		return nil
	}

	var (
		segments []Segment
		cur      *Segment
	)
	for i := 0; i < steps; i++ {
		az := 2 * math.Pi * float64(i) / float64(steps)
		p, ok := e.EdgePoint(sun, moon, edge, az)
		if !ok {
			cur = nil
			continue
		}
		if cur == nil {
			segments = append(segments, Segment{})
			cur = &segments[len(segments)-1]
		}
		cur.Points = append(cur.Points, p)
		cur.Azimuths = append(cur.Azimuths, az)
	}

	switch {
	case len(segments) == 0:
		return nil
	case len(segments) == 1 && len(segments[0].Points) == steps:
		segments[0].Closed = true
		return segments
	}

	// join the run ending at the last azimuth with the one starting at 0
	first, last := segments[0], segments[len(segments)-1]
	finalAz := 2 * math.Pi * float64(steps-1) / float64(steps)
	if len(segments) > 1 && first.Azimuths[0] == 0 && last.Azimuths[len(last.Azimuths)-1] == finalAz {
		merged := Segment{
			Points:   append(append([]earth.LatLon{}, last.Points...), first.Points...),
			Azimuths: append(append([]float64{}, last.Azimuths...), first.Azimuths...),
		}
		segments = append([]Segment{merged}, segments[1:len(segments)-1]...)
	}
	return segments
}
