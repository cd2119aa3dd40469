package geo

import "math"

const (
	// earthRadiusMeters is the mean Earth radius.
	earthRadiusMeters = 6371e3
	metersPerMile     = 1609.344

	// halfWindow is the half-width of a cardinal direction window in degrees.
	halfWindow = 45.0
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMiles returns the haversine great-circle distance between a and b in miles.
func DistanceMiles(a, b Coordinate) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c / metersPerMile
}

// BearingDegrees returns the initial great-circle bearing from a to b in [0, 360).
// The bearing from a point to itself is 0.
func BearingDegrees(a, b Coordinate) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dLambda := radians(b.Lon - a.Lon)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x)

	brng := math.Mod(theta*180/math.Pi+360, 360)
	// Mod can hand back 360 for inputs a hair under 0 after the +360 shift.
	if brng >= 360 {
		brng -= 360
	}
	return brng
}
