package charger

import "github.com/neexbeast/dry-chargers/internal/geo"

// Suitable reports whether the record should be shown for the criteria.
//
// The record must offer one of the wanted connectors, lie within
// [MinMiles, MaxMiles] of the origin, and not lie strictly inside the
// ±45° window of any direction the user did not ask for. A bearing that
// sits exactly on a window edge is therefore never rejected by direction.
func Suitable(r Record, c Criteria) bool {
	if !r.Connectors.Intersects(c.Connectors) {
		return false
	}

	d := geo.DistanceMiles(c.Origin, r.Coordinate)
	if d < c.MinMiles || d > c.MaxMiles {
		return false
	}

	bearing := geo.BearingDegrees(c.Origin, r.Coordinate)
	for _, dir := range geo.AllDirections {
		if !c.Allows(dir) && geo.InWindow(bearing, dir) {
			return false
		}
	}

	return true
}
