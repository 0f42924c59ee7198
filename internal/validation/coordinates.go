package validation

import (
	"fmt"
	"math"
)

// CoordinateError representa un error de validación de coordenadas
type CoordinateError struct {
	Field   string
	Value   float64
	Message string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %s (valor: %.6f)", e.Field, e.Message, e.Value)
}

// ValidateLatitude valida una coordenada de latitud
func ValidateLatitude(lat float64, fieldName string) error {
	if math.IsNaN(lat) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "valor NaN no permitido",
		}
	}

	if math.IsInf(lat, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "valor infinito no permitido",
		}
	}

	if lat < -90 || lat > 90 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "debe estar entre -90 y 90",
		}
	}

	return nil
}

// ValidateLongitude valida una coordenada de longitud
func ValidateLongitude(lng float64, fieldName string) error {
	if math.IsNaN(lng) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lng,
			Message: "valor NaN no permitido",
		}
	}

	if math.IsInf(lng, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lng,
			Message: "valor infinito no permitido",
		}
	}

	if lng < -180 || lng > 180 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lng,
			Message: "debe estar entre -180 y 180",
		}
	}

	return nil
}

// ValidateCoordinatePair valida un par de coordenadas (lat, lng)
func ValidateCoordinatePair(lat, lng float64, prefix string) error {
	if err := ValidateLatitude(lat, prefix+"_lat"); err != nil {
		return err
	}

	if err := ValidateLongitude(lng, prefix+"_lng"); err != nil {
		return err
	}

	return nil
}

// ValidateAccuracy valida la precisión reportada por el dispositivo (metros).
// Un valor negativo o no finito indica un fix corrupto.
func ValidateAccuracy(accuracy float64) error {
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) {
		return &CoordinateError{
			Field:   "accuracy",
			Value:   accuracy,
			Message: "valor no finito no permitido",
		}
	}

	if accuracy < 0 {
		return &CoordinateError{
			Field:   "accuracy",
			Value:   accuracy,
			Message: "debe ser >= 0",
		}
	}

	return nil
}

// IsZeroCoordinate verifica si una coordenada es (0, 0)
// El frontend envía (0,0) mientras espera el primer fix GPS.
func IsZeroCoordinate(lat, lng float64) bool {
	return lat == 0 && lng == 0
}
