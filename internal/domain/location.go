package domain

// Location is a geocoded point together with the address text it came from.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
