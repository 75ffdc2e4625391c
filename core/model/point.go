package model

// Point is a geocoded coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// IsZero reports whether the point has not been geocoded yet.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}
