package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"go.uber.org/zap"

	"github.com/echoflaresat/eclipse/almanac"
	"github.com/echoflaresat/eclipse/config"
	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/eclipse"
	"github.com/echoflaresat/eclipse/export"
	"github.com/echoflaresat/eclipse/logger"
	"github.com/echoflaresat/eclipse/track"
)

type flags struct {
	config, almanac, model *string
	start, end, step       *time.Duration
	workers                *int
	out, format            *string
	logLevel, logFile      *string
	showHelp               *bool
}

func defineFlags(fs *flag.FlagSet) flags {
	return flags{
		config:  fs.String("config", "", "YAML config file"),
		almanac: fs.String("almanac", "", "Almanac table (.yaml or pipe text)"),
		model:   fs.String("model", "", "Earth model: sphere or ellipsoid"),

		start:   fs.Duration("start", 0, "Trace start as offset from the almanac date (e.g. 16h30m)"),
		end:     fs.Duration("end", 0, "Trace end as offset from the almanac date"),
		step:    fs.Duration("step", 0, "Trace step (e.g. 10s)"),
		workers: fs.Int("workers", 0, "Parallel workers, 0 for one per CPU"),

		out:    fs.String("out", "", "Output path, - for stdout"),
		format: fs.String("format", "", "Output format: csv or geojson"),

		logLevel: fs.String("log-level", "", "Log level: debug, info, warn, error"),
		logFile:  fs.String("log-file", "", "Also log to this rotating file"),

		showHelp: fs.Bool("h", false, "Show this help message"),
	}
}

func printHelp(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `Eclipse - Shadow Path Tracer

Usage:
  %[1]s [options]

`, fs.Name())

	printGroup(fs, w, "Input", []string{"config", "almanac", "model"})
	printGroup(fs, w, "Trace Options", []string{"start", "end", "step", "workers"})
	printGroup(fs, w, "Output", []string{"out", "format"})
	printGroup(fs, w, "Logging", []string{"log-level", "log-file"})
	printGroup(fs, w, "Misc", []string{"h"})
}

func printGroup(fs *flag.FlagSet, w io.Writer, title string, keys []string) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, name := range keys {
		if f := fs.Lookup(name); f != nil {
			fmt.Fprintf(w, "  -%-10s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(w)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "eclipse:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eclipse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fl := defineFlags(fs)
	fs.Usage = func() { printHelp(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fl.showHelp {
		printHelp(fs, stderr)
		return flag.ErrHelp
	}

	cfg, err := config.Load(*fl.config)
	if err != nil {
		return err
	}
	applyFlags(fs, fl, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Almanac == "" {
		return errors.New("no almanac given, use -almanac or the config file")
	}

	var logFile logger.FileConfig
	if cfg.Logging.File != "" {
		logFile = logger.DefaultFileConfig(cfg.Logging.File)
	}
	log, err := logger.New(cfg.Logging.Level, logFile, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	alm, err := almanac.Load(cfg.Almanac)
	if err != nil {
		return err
	}
	model, err := earth.ModelByName(cfg.Model)
	if err != nil {
		return err
	}
	engine := eclipse.New(model)
	engine.SunRadius = cfg.Bodies.SunRadiusKm
	engine.MoonRadius = cfg.Bodies.MoonRadiusKm

	log.Info("tracing",
		zap.String("almanac", cfg.Almanac),
		zap.String("model", model.Name()),
		zap.Time("epoch", alm.Epoch),
		zap.Duration("step", cfg.Trace.Step),
	)
	points, err := track.Trace(ctx, engine, alm.Table, track.Options{
		Start:   millis(cfg.Trace.Start),
		End:     millis(cfg.Trace.End),
		Step:    millis(cfg.Trace.Step),
		Workers: cfg.Trace.Workers,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	write := writeCSV
	if cfg.Format == "geojson" {
		write = writeGeoJSON
	}
	err = writeOutput(cfg.Output, stdout, func(w io.Writer) error {
		return write(w, alm, points)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}

	logSummary(log, track.Summarize(points, track.Geoid(model)))
	return nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(fs *flag.FlagSet, fl flags, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "almanac":
			cfg.Almanac = *fl.almanac
		case "model":
			cfg.Model = *fl.model
		case "start":
			cfg.Trace.Start = *fl.start
		case "end":
			cfg.Trace.End = *fl.end
		case "step":
			cfg.Trace.Step = *fl.step
		case "workers":
			cfg.Trace.Workers = *fl.workers
		case "out":
			cfg.Output = *fl.out
		case "format":
			cfg.Format = *fl.format
		case "log-level":
			cfg.Logging.Level = *fl.logLevel
		case "log-file":
			cfg.Logging.File = *fl.logFile
		}
	})
}

// writeOutput runs write against stdout for "" or "-", otherwise against
// a created file whose close error is reported.
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

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var csvHeader = []string{"label", "time", "jd", "lat", "lon", "type", "distance_km"}

// writeCSV writes one row per instant the shadow touches the Earth.
func writeCSV(w io.Writer, alm *almanac.Almanac, points []track.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		if !p.Visible {
			continue
		}
		at := alm.Time(p.Time)
		lat, lon := p.Shadow.Location.Degrees()
		err := cw.Write([]string{
			track.Label(p.Time),
			at.Format(time.RFC3339),
			strconv.FormatFloat(julian.TimeToJD(at), 'f', 6, 64),
			strconv.FormatFloat(lat, 'f', 5, 64),
			strconv.FormatFloat(lon, 'f', 5, 64),
			p.Shadow.Type.String(),
			strconv.FormatFloat(p.Shadow.Distance, 'f', 1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeGeoJSON writes the central path with a labeled point every ten
// minutes.
func writeGeoJSON(w io.Writer, alm *almanac.Almanac, points []track.Point) error {
	const every = 10 * 60 * 1000
	fc := export.Path(points, func(ms float64) string {
		if math.Mod(ms, every) != 0 {
			return ""
		}
		return track.Label(ms)
	})
	fc.Features[0].Properties["date"] = alm.Epoch.Format(time.DateOnly)
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func logSummary(log *zap.Logger, s track.Summary) {
	if s.Visible == 0 {
		log.Info("shadow never touches the Earth", zap.Int("points", s.Points))
		return
	}
	log.Info("central path",
		zap.String("first", track.Label(s.First)),
		zap.String("last", track.Label(s.Last)),
		zap.Int("visible", s.Visible),
		zap.Float64("length_km", s.PathLength),
		zap.Float64("mean_speed_km_s", s.MeanSpeed),
		zap.Float64("max_speed_km_s", s.MaxSpeed),
		zap.Int("total", s.Types[eclipse.Total]),
		zap.Int("annular", s.Types[eclipse.Annular]),
	)
}
