// Package config handles eclipse tool configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/logger"
)

// Config holds all settings shared by the command line tools.
type Config struct {
	Model   string        `yaml:"model"`   // sphere or ellipsoid
	Almanac string        `yaml:"almanac"` // path to the almanac table
	Output  string        `yaml:"output"`  // "-" for stdout
	Format  string        `yaml:"format"`  // csv or geojson
	Trace   TraceConfig   `yaml:"trace"`
	Bodies  BodiesConfig  `yaml:"bodies"`
	Outline OutlineConfig `yaml:"outline"`
	Logging LoggingConfig `yaml:"logging"`
}

// TraceConfig bounds the central path trace. Start and End are offsets
// from the almanac date; zero values mean the table's first and last row.
type TraceConfig struct {
	Start   time.Duration `yaml:"start"`
	End     time.Duration `yaml:"end"`
	Step    time.Duration `yaml:"step"`
	Workers int           `yaml:"workers"` // 0 = GOMAXPROCS
}

// BodiesConfig holds the body radii in km.
type BodiesConfig struct {
	SunRadiusKm  float64 `yaml:"sun_radius_km"`
	MoonRadiusKm float64 `yaml:"moon_radius_km"`
}

// OutlineConfig holds the azimuth resolution of umbra/penumbra outlines.
type OutlineConfig struct {
	Steps int `yaml:"steps"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model:  "ellipsoid",
		Output: "-",
		Format: "csv",
		Trace: TraceConfig{
			Step: 10 * time.Second,
		},
		Bodies: BodiesConfig{
			SunRadiusKm:  695780,
			MoonRadiusKm: 1737.4,
		},
		Outline: OutlineConfig{
			Steps: 360,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, e := earth.ModelByName(c.Model); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Format != "csv" && c.Format != "geojson" {
		err = multierr.Append(err, fmt.Errorf("unknown output format %q", c.Format))
	}
	if c.Trace.Step <= 0 {
		err = multierr.Append(err, fmt.Errorf("trace step must be positive, got %v", c.Trace.Step))
	}
	if c.Trace.End != 0 && c.Trace.End < c.Trace.Start {
		err = multierr.Append(err, fmt.Errorf("trace end %v before start %v", c.Trace.End, c.Trace.Start))
	}
	if c.Trace.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("trace workers must not be negative, got %d", c.Trace.Workers))
	}
	if c.Bodies.SunRadiusKm <= c.Bodies.MoonRadiusKm || c.Bodies.MoonRadiusKm <= 0 {
		err = multierr.Append(err, fmt.Errorf("body radii must satisfy 0 < moon (%v) < sun (%v)", c.Bodies.MoonRadiusKm, c.Bodies.SunRadiusKm))
	}
	if c.Outline.Steps <= 0 {
		err = multierr.Append(err, fmt.Errorf("outline steps must be positive, got %d", c.Outline.Steps))
	}
	if _, e := logger.ParseLevel(c.Logging.Level); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}
