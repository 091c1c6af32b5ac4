package geo

import (
	"math"
	"strings"
)

// EarthRadiusKm is the mean radius of the spherical earth model.
const EarthRadiusKm = 6371.0

// Fallback countries for codes missing from the center table. Origins and
// destinations fall back differently so existing demo quotes stay stable.
const (
	DefaultFromCountry = "DE"
	DefaultToCountry   = "FR"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

var countryCenters = map[string]Point{
	"DE": {Lat: 51.1657, Lon: 10.4515},
	"FR": {Lat: 46.2276, Lon: 2.2137},
	"ES": {Lat: 40.4637, Lon: -3.7492},
	"NL": {Lat: 52.1326, Lon: 5.2913},
	"IT": {Lat: 41.8719, Lon: 12.5674},
	"GB": {Lat: 55.3781, Lon: -3.4360},
	"US": {Lat: 39.8283, Lon: -98.5795},
}

// CountryCenter returns the representative point of an ISO country code and
// whether the code was known.
func CountryCenter(code string) (Point, bool) {
	p, ok := countryCenters[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok
}

// OriginCenter resolves an origin country, falling back to DefaultFromCountry.
func OriginCenter(code string) Point {
	if p, ok := CountryCenter(code); ok {
		return p
	}
	return countryCenters[DefaultFromCountry]
}

// DestinationCenter resolves a destination country, falling back to DefaultToCountry.
func DestinationCenter(code string) Point {
	if p, ok := CountryCenter(code); ok {
		return p
	}
	return countryCenters[DefaultToCountry]
}

// DistanceKm is the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	s := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	// rounding can push s a hair past 1 for antipodal points
	s = math.Min(1, s)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(s))
}

// CountryDistanceKm is the distance between the centers of two countries,
// applying the origin and destination fallbacks.
func CountryDistanceKm(from, to string) float64 {
	return DistanceKm(OriginCenter(from), DestinationCenter(to))
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
