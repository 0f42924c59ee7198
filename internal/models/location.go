package models

// GeoPoint es un par de coordenadas simple (sesiones de broadcast).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoFix es una posición reportada por un dispositivo, con precisión en metros.
type GeoFix struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}
