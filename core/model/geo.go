package model

// LatLon is a WGS84 coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// IsZero reports whether the coordinate was never set.
func (l LatLon) IsZero() bool { return l.Lat == 0 && l.Lon == 0 }
