// Command outline prints the shadow center and the umbra and penumbra
// outlines at one instant of an almanac table.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/echoflaresat/eclipse/almanac"
	"github.com/echoflaresat/eclipse/angle"
	"github.com/echoflaresat/eclipse/config"
	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/eclipse"
	"github.com/echoflaresat/eclipse/ephemeris"
	"github.com/echoflaresat/eclipse/export"
	"github.com/echoflaresat/eclipse/logger"
	"github.com/echoflaresat/eclipse/track"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "outline:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("outline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath = fs.String("config", "", "YAML config file")
		almPath = fs.String("almanac", "", "Almanac table (.yaml or pipe text)")
		model   = fs.String("model", "", "Earth model: sphere or ellipsoid")
		at      = fs.Duration("at", 0, "Instant as offset from the almanac date (e.g. 18h), required")
		steps   = fs.Int("steps", 0, "Azimuth steps around each outline")
		edges   = fs.String("edge", "both", "umbra, penumbra or both")
		out     = fs.String("out", "", "Output path, - for stdout")
		format  = fs.String("format", "", "Output format: csv or geojson")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	atSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "at":
			atSet = true
		case "almanac":
			cfg.Almanac = *almPath
		case "model":
			cfg.Model = *model
		case "steps":
			cfg.Outline.Steps = *steps
		case "out":
			cfg.Output = *out
		case "format":
			cfg.Format = *format
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Almanac == "" {
		return errors.New("no almanac given, use -almanac or the config file")
	}
	if !atSet {
		return errors.New("no instant given, use -at with an offset inside the almanac (e.g. -at 18h)")
	}
	sweep, err := parseEdges(*edges)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, logger.FileConfig{}, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	alm, err := almanac.Load(cfg.Almanac)
	if err != nil {
		return err
	}
	m, err := earth.ModelByName(cfg.Model)
	if err != nil {
		return err
	}
	engine := eclipse.New(m)
	engine.SunRadius = cfg.Bodies.SunRadiusKm
	engine.MoonRadius = cfg.Bodies.MoonRadiusKm

	t := float64(*at) / float64(time.Millisecond)
	center, ok, err := engine.ShadowAt(alm.Table, t)
	if err != nil {
		return fmt.Errorf("-at %v: %w", *at, err)
	}
	if ok {
		log.Info("shadow center",
			zap.String("at", track.Label(t)),
			zap.Stringer("location", center.Location),
			zap.Stringer("type", center.Type),
			zap.Float64("distance_km", center.Distance),
		)
	} else {
		log.Info("shadow axis misses the Earth", zap.String("at", track.Label(t)))
	}

	sample, err := ephemeris.Interpolate(alm.Table, t)
	if err != nil {
		return err
	}
	sun, moon := eclipse.Positions(sample)

	outlines := make(map[eclipse.Edge][]eclipse.Segment, len(sweep))
	for _, edge := range sweep {
		segs := engine.Outline(sun, moon, edge, cfg.Outline.Steps)
		log.Debug("outline", zap.Stringer("edge", edge), zap.Int("segments", len(segs)))
		outlines[edge] = segs
	}

	err = writeOutput(cfg.Output, stdout, func(w io.Writer) error {
		if cfg.Format != "geojson" {
			return writeCSV(w, sweep, outlines)
		}
		fc := geojson.NewFeatureCollection()
		if ok {
			fc.Append(export.Center(center, track.Label(t)))
		}
		for _, edge := range sweep {
			fc.Features = append(fc.Features, export.Outline(edge, outlines[edge])...)
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	return nil
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, sweep []eclipse.Edge, outlines map[eclipse.Edge][]eclipse.Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	row := func(edge eclipse.Edge, seg int, az float64, p earth.LatLon) error {
		lat, lon := p.Degrees()
		return cw.Write([]string{
			edge.String(),
			strconv.Itoa(seg),
			strconv.FormatFloat(az, 'f', 3, 64),
			strconv.FormatFloat(lat, 'f', 5, 64),
			strconv.FormatFloat(lon, 'f', 5, 64),
		})
	}
	for _, edge := range sweep {
		for i, seg := range outlines[edge] {
			for j, p := range seg.Points {
				if err := row(edge, i, angle.RadToDeg(seg.Azimuths[j]), p); err != nil {
					return err
				}
			}
			// repeat the first point so a closed ring plots closed
			if seg.Closed {
				if err := row(edge, i, 360, seg.Points[0]); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var csvHeader = []string{"edge", "segment", "azimuth", "lat", "lon"}

func parseEdges(s string) ([]eclipse.Edge, error) {
	switch s {
	case "umbra":
		return []eclipse.Edge{eclipse.Umbra}, nil
	case "penumbra":
		return []eclipse.Edge{eclipse.Penumbra}, nil
	case "both", "":
		return []eclipse.Edge{eclipse.Umbra, eclipse.Penumbra}, nil
	}
	return nil, fmt.Errorf("unknown edge %q", s)
}
