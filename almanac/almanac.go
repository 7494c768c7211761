// Package almanac reads nautical-almanac style hourly tables of Sun and
// Moon positions into an ephemeris.Table.
//
// Two layouts are accepted. The YAML layout:
//
//	date: 2024-04-08
//	rows:
//	  - hour: 18
//	    sun_gha: [89, 35.5]
//	    sun_dec: "7° 35.2'"
//	    moon_gha: 89 54.4
//	    moon_dec: [7, 48.9]
//	    moon_hp: [1, 0.9]
//
// and the plain pipe layout copied straight from a printed almanac page,
// one row per line:
//
//	18 |  89 35.5 | 7 35.2 |  89 54.4 | 7 48.9 | 1 0.9
package almanac

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/echoflaresat/eclipse/ephemeris"
)

const hourMillis = 3600 * 1000.0

var ErrNoDate = errors.New("almanac: missing date")

// Almanac is a loaded table and the instant its time 0 refers to.
type Almanac struct {
	Epoch time.Time
	Table ephemeris.Table
}

// Time converts a table time (ms) to an absolute instant.
func (a *Almanac) Time(ms float64) time.Time {
	return a.Epoch.Add(time.Duration(ms * float64(time.Millisecond)))
}

// Offset converts an absolute instant to a table time (ms).
func (a *Almanac) Offset(t time.Time) float64 {
	return float64(t.Sub(a.Epoch)) / float64(time.Millisecond)
}

type document struct {
	Date          string  `yaml:"date"`
	SunDistanceKm float64 `yaml:"sun_distance_km"`
	Rows          []row   `yaml:"rows"`
}

type row struct {
	Hour           float64 `yaml:"hour"`
	SunGHA         Angle   `yaml:"sun_gha"`
	SunDec         Angle   `yaml:"sun_dec"`
	MoonGHA        Angle   `yaml:"moon_gha"`
	MoonDec        Angle   `yaml:"moon_dec"`
	MoonHP         Angle   `yaml:"moon_hp"`
	MoonDistanceKm float64 `yaml:"moon_distance_km"`
}

// Load reads a YAML almanac (.yaml, .yml) or a pipe table. Pipe tables
// carry no date; their epoch is the Unix epoch.
func Load(path string) (*Almanac, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open almanac: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Decode(f)
	}
	return ParseTable(f, time.Unix(0, 0).UTC())
}

// Decode reads the YAML layout.
func Decode(r io.Reader) (*Almanac, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode almanac: %w", err)
	}
	if doc.Date == "" {
		return nil, ErrNoDate
	}
	epoch, err := time.Parse(time.DateOnly, doc.Date)
	if err != nil {
		return nil, fmt.Errorf("almanac date: %w", err)
	}

	table := make(ephemeris.Table, 0, len(doc.Rows))
	for _, r := range doc.Rows {
		table = append(table, ephemeris.Sample{
			Time:     r.Hour * hourMillis,
			SunGHA:   r.SunGHA.Rad(),
			SunDec:   r.SunDec.Rad(),
			SunDist:  doc.SunDistanceKm,
			MoonGHA:  r.MoonGHA.Rad(),
			MoonDec:  r.MoonDec.Rad(),
			MoonHP:   r.MoonHP.Rad(),
			MoonDist: r.MoonDistanceKm,
		})
	}
	return finish(epoch, table)
}

// ParseTable reads the pipe layout: hour, Sun GHA, Sun Dec, Moon GHA,
// Moon Dec and Moon HP separated by "|". Blank lines and lines starting
// with "#" are skipped.
func ParseTable(r io.Reader, epoch time.Time) (*Almanac, error) {
	var table ephemeris.Table
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "|")
		if len(fields) != 6 {
			return nil, fmt.Errorf("almanac line %d: want 6 columns, got %d", line, len(fields))
		}
		hour, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("almanac line %d: hour: %w", line, err)
		}
		var v [5]float64
		for i, f := range fields[1:] {
			a, err := ParseAngle(f)
			if err != nil {
				return nil, fmt.Errorf("almanac line %d column %d: %w", line, i+2, err)
			}
			v[i] = a.Rad()
		}
		table = append(table, ephemeris.Sample{
			Time:    hour * hourMillis,
			SunGHA:  v[0],
			SunDec:  v[1],
			MoonGHA: v[2],
			MoonDec: v[3],
			MoonHP:  v[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read almanac: %w", err)
	}
	return finish(epoch, table)
}

func finish(epoch time.Time, table ephemeris.Table) (*Almanac, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("almanac: %w", err)
	}
	unwrapGHA(table)
	return &Almanac{Epoch: epoch, Table: table}, nil
}

// unwrapGHA makes the hour angles continuous across 360° so that linear
// interpolation between rows never sweeps backwards around the globe.
func unwrapGHA(table ephemeris.Table) {
	for i := 1; i < len(table); i++ {
		table[i].SunGHA = unwrap(table[i-1].SunGHA, table[i].SunGHA)
		table[i].MoonGHA = unwrap(table[i-1].MoonGHA, table[i].MoonGHA)
	}
}

func unwrap(prev, cur float64) float64 {
	for cur < prev-math.Pi {
		cur += 2 * math.Pi
	}
	for cur > prev+math.Pi {
		cur -= 2 * math.Pi
	}
	return cur
}
