// Package geo decides whether coordinates fall inside the region that is
// allowed to register.
package geo

// Bounds is a rectangular latitude/longitude range. Edges are inclusive.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Egypt approximates the country with a bounding box, so points near the
// border may be misclassified.
var Egypt = Bounds{
	MinLat: 22.0,
	MaxLat: 31.5,
	MinLon: 25.0,
	MaxLon: 35.0,
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// IsWithinAllowedRegion reports whether the point may sign up.
func IsWithinAllowedRegion(lat, lon float64) bool {
	return Egypt.Contains(lat, lon)
}
