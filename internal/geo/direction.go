package geo

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal compass directions.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// AllDirections lists the cardinal directions clockwise from North.
var AllDirections = []Direction{North, East, South, West}

// Center returns the bearing the direction's window is centred on.
func (d Direction) Center() float64 {
	return float64(d) * 90
}

func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts a direction name in any case.
func ParseDirection(s string) (Direction, error) {
	for _, d := range AllDirections {
		if strings.EqualFold(strings.TrimSpace(s), d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// offset returns the signed angular distance from the direction's centre to
// bearing, in (-180, 180].
func (d Direction) offset(bearing float64) float64 {
	off := bearing - d.Center()
	for off > 180 {
		off -= 360
	}
	for off <= -180 {
		off += 360
	}
	return off
}

// InWindow reports whether bearing lies strictly within 45 degrees of d.
// Bearings exactly on a window edge are outside it.
func InWindow(bearing float64, d Direction) bool {
	off := d.offset(bearing)
	return off > -halfWindow && off < halfWindow
}

// Directions returns every direction whose closed ±45° window contains
// bearing. A bearing on a 45° boundary belongs to two directions.
func Directions(bearing float64) []Direction {
	var out []Direction
	for _, d := range AllDirections {
		off := d.offset(bearing)
		if off >= -halfWindow && off <= halfWindow {
			out = append(out, d)
		}
	}
	return out
}

// CompassPoint returns a single label for bearing. Each window is half-open,
// (centre-45, centre+45], so boundary bearings take the counter-clockwise
// neighbour: 45° is North, 135° is East.
func CompassPoint(bearing float64) Direction {
	for _, d := range AllDirections {
		off := d.offset(bearing)
		if off > -halfWindow && off <= halfWindow {
			return d
		}
	}
	return North
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
