package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"terrainhub/models"
)

const earthRadiusKm = 6371.0

// UnlimitedDistanceKm is the slider value meaning "no distance filter".
const UnlimitedDistanceKm = 50.0

// Coordinate match tolerances, tried in order when resolving a lat--lng reference.
const (
	ExactTolerance = 1e-6
	LooseTolerance = 1e-4
)

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Point is a bare coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// CourtFilter narrows a court listing.
type CourtFilter struct {
	MinRating     float64
	MaxDistanceKm float64
	Origin        *Point
}

// FilterCourts keeps courts with at least MinRating average and, when an
// origin is known and MaxDistanceKm is below the unlimited value, within that
// distance of it.
func FilterCourts(courts []models.Court, f CourtFilter) []models.Court {
	useDistance := f.Origin != nil && f.MaxDistanceKm > 0 && f.MaxDistanceKm < UnlimitedDistanceKm
	out := make([]models.Court, 0, len(courts))
	for _, c := range courts {
		if f.MinRating > 0 && c.Rating.Average < f.MinRating {
			continue
		}
		if useDistance && Haversine(f.Origin.Lat, f.Origin.Lng, c.Location.Lat, c.Location.Lng) > f.MaxDistanceKm {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseCoordinateRef parses a "lat--lng" court reference.
func ParseCoordinateRef(ref string) (Point, bool) {
	lat, lng, ok := strings.Cut(ref, "--")
	if !ok {
		return Point{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Point{}, false
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return Point{}, false
	}
	if err := ValidateCoordinates(la, lo); err != nil {
		return Point{}, false
	}
	return Point{Lat: la, Lng: lo}, true
}

// CoordinateRef formats a court location as a reference.
func CoordinateRef(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "--" + strconv.FormatFloat(lng, 'f', -1, 64)
}

// WithinTolerance reports whether two points match within tol degrees on both axes.
func WithinTolerance(p Point, lat, lng, tol float64) bool {
	return math.Abs(p.Lat-lat) <= tol && math.Abs(p.Lng-lng) <= tol
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrValidation)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrValidation)
	}
	return nil
}
