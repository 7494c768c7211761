// Package angle converts between degrees and radians and composes
// sexagesimal components (degrees, minutes, seconds) into angle values.
package angle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"
)

var (
	// ErrUnitOrder is returned when an explicit unit goes backwards,
	// e.g. seconds given before minutes.
	ErrUnitOrder = errors.New("angle: units out of order")
	// ErrMalformed is returned for components that are not numbers.
	ErrMalformed = errors.New("angle: malformed component")
)

// Unit is the sexagesimal level of a component.
type Unit int

const (
	// Auto places the component one level after the previous one.
	Auto Unit = iota - 1
	Degree
	Minute
	Second
)

func (u Unit) String() string {
	switch u {
	case Auto:
		return "auto"
	case Degree:
		return "degree"
	case Minute:
		return "minute"
	case Second:
		return "second"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Part is one sexagesimal component.
type Part struct {
	Value float64
	Unit  Unit
}

// Parts builds implicit-unit components from plain values.
func Parts(values ...float64) []Part {
	out := make([]Part, len(values))
	for i, v := range values {
		out[i] = Part{Value: v, Unit: Auto}
	}
	return out
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return unit.AngleFromDeg(deg).Rad()
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return unit.Angle(rad).Deg()
}

// Sexagesimal returns Σ vᵢ·60⁻ⁱ in the unit of the first value.
func Sexagesimal(values ...float64) float64 {
	sum := 0.0
	for i, v := range values {
		sum += v * math.Pow(60, -float64(i))
	}
	return sum
}

// Compose sums the parts left to right as degrees, negates the result when
// neg is set, and returns it as an angle in radians.
func Compose(neg bool, parts ...Part) (unit.Angle, error) {
	level := Degree
	sum := 0.0
	for i, p := range parts {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return 0, fmt.Errorf("%w: component %d is %v", ErrMalformed, i, p.Value)
		}
		if p.Unit != Auto {
			if p.Unit < level {
				return 0, fmt.Errorf("%w: %s after %s", ErrUnitOrder, p.Unit, level-1)
			}
			level = p.Unit
		}
		sum += p.Value * math.Pow(60, -float64(level))
		level++
	}
	if neg {
		sum = -sum
	}
	return unit.AngleFromDeg(sum), nil
}

var suffixes = []struct {
	mark string
	unit Unit
}{
	{"°", Degree},
	{"d", Degree},
	{"''", Second},
	{"\"", Second},
	{"'", Minute},
}

// ParsePart reads a single component token such as "59", "35.1'" or "12\"".
// A token without a unit mark gets Auto.
func ParsePart(token string) (Part, error) {
	s := strings.TrimSpace(token)
	u := Auto
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.mark) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sfx.mark))
			u = sfx.unit
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Part{}, fmt.Errorf("%w: %q", ErrMalformed, token)
	}
	return Part{Value: v, Unit: u}, nil
}
