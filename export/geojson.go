// Package export turns traced paths and shadow outlines into GeoJSON for
// use in mapping tools.
package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/eclipse"
	"github.com/echoflaresat/eclipse/track"
)

// Point converts a position to a GeoJSON [lon, lat] pair in degrees.
func Point(c earth.LatLon) orb.Point {
	lat, lon := c.Degrees()
	return orb.Point{lon, lat}
}

// Path returns the central path as one MultiLineString feature, broken
// wherever the shadow leaves the Earth, plus a Point feature per visible
// instant for which label returns a non-empty string.
func Path(points []track.Point, label func(ms float64) string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var (
		runs orb.MultiLineString
		cur  orb.LineString
	)
	for _, p := range points {
		if !p.Visible {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, Point(p.Shadow.Location))

		if label == nil {
			continue
		}
		if l := label(p.Time); l != "" {
			f := geojson.NewFeature(Point(p.Shadow.Location))
			f.Properties["label"] = l
			f.Properties["type"] = p.Shadow.Type.String()
			f.Properties["distance_km"] = p.Shadow.Distance
			fc.Append(f)
		}
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}

	path := geojson.NewFeature(runs)
	path.Properties["name"] = "central path"
	fc.Features = append([]*geojson.Feature{path}, fc.Features...)
	return fc
}

// Outline returns one feature per outline segment. A closed ring becomes a
// Polygon, a broken one a LineString.
func Outline(edge eclipse.Edge, segments []eclipse.Segment) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(segments))
	for i, seg := range segments {
		line := make(orb.LineString, 0, len(seg.Points)+1)
		for _, p := range seg.Points {
			line = append(line, Point(p))
		}

		var f *geojson.Feature
		if seg.Closed {
			ring := orb.Ring(append(line, line[0]))
			f = geojson.NewFeature(orb.Polygon{ring})
		} else {
			f = geojson.NewFeature(line)
		}
		f.Properties["edge"] = edge.String()
		f.Properties["segment"] = i
		out = append(out, f)
	}
	return out
}

// Center returns the shadow center as a Point feature.
func Center(s eclipse.Shadow, label string) *geojson.Feature {
	f := geojson.NewFeature(Point(s.Location))
	f.Properties["label"] = label
	f.Properties["type"] = s.Type.String()
	f.Properties["distance_km"] = s.Distance
	return f
}
