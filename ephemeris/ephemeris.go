// Package ephemeris holds tabulated Sun/Moon positions and interpolates
// between them.
package ephemeris

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyTable = errors.New("ephemeris: empty table")
	ErrUnordered  = errors.New("ephemeris: sample times not strictly increasing")
	// ErrOutOfRange matches every *OutOfRangeError.
	ErrOutOfRange = errors.New("ephemeris: time outside table range")
)

// Sample is one almanac row. Angles are radians, distances km and Time is
// milliseconds since the table epoch. SunDist and MoonDist are optional;
// zero means unknown.
type Sample struct {
	Time     float64
	SunGHA   float64
	SunDec   float64
	SunDist  float64
	MoonGHA  float64
	MoonDec  float64
	MoonHP   float64
	MoonDist float64
}

// Table is an ordered run of samples with strictly increasing Time.
type Table []Sample

// OutOfRangeError reports a lookup outside [First, Last].
type OutOfRangeError struct {
	Time        float64
	First, Last float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("ephemeris: time %v outside table range [%v, %v]", e.Time, e.First, e.Last)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Validate checks that the table is non-empty and ordered.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	for i := 1; i < len(t); i++ {
		if !(t[i].Time > t[i-1].Time) {
			return fmt.Errorf("%w: row %d (%v) after row %d (%v)", ErrUnordered, i, t[i].Time, i-1, t[i-1].Time)
		}
	}
	return nil
}

// Span returns the first and last sample times.
func (t Table) Span() (first, last float64) {
	if len(t) == 0 {
		return math.NaN(), math.NaN()
	}
	return t[0].Time, t[len(t)-1].Time
}

// Covers reports whether time lies inside the table span.
func (t Table) Covers(time float64) bool {
	first, last := t.Span()
	return time >= first && time <= last
}

// Interpolate returns the sample at time, linearly interpolated between the
// first adjacent pair of rows that brackets it. A time on a row returns that
// row unchanged. Times outside the table fail with *OutOfRangeError; the
// table is never extrapolated.
func Interpolate(table Table, time float64) (Sample, error) {
	if len(table) == 0 {
		return Sample{}, ErrEmptyTable
	}
	if math.IsNaN(time) {
		first, last := table.Span()
		return Sample{}, &OutOfRangeError{Time: time, First: first, Last: last}
	}
	if len(table) == 1 && table[0].Time == time {
		return table[0], nil
	}
	for i := 1; i < len(table); i++ {
		a, b := table[i-1], table[i]
		if time < a.Time || time > b.Time {
			continue
		}
		switch time {
		case a.Time:
			return a, nil
		case b.Time:
			return b, nil
		}
		s := lerp(a, b, (time-a.Time)/(b.Time-a.Time))
		s.Time = time
		return s, nil
	}
	first, last := table.Span()
	return Sample{}, &OutOfRangeError{Time: time, First: first, Last: last}
}

func lerp(a, b Sample, f float64) Sample {
	mix := func(x, y float64) float64 { return x + f*(y-x) }
	return Sample{
		Time:     mix(a.Time, b.Time),
		SunGHA:   mix(a.SunGHA, b.SunGHA),
		SunDec:   mix(a.SunDec, b.SunDec),
		SunDist:  mix(a.SunDist, b.SunDist),
		MoonGHA:  mix(a.MoonGHA, b.MoonGHA),
		MoonDec:  mix(a.MoonDec, b.MoonDec),
		MoonHP:   mix(a.MoonHP, b.MoonHP),
		MoonDist: mix(a.MoonDist, b.MoonDist),
	}
}
