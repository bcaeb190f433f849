package domain

import "time"

// Coordenada — точка трека водителя по активному сервису.
type Coordenada struct {
	ID          string    `json:"id" db:"id"`
	ServicioID  string    `json:"servicio_id" db:"servicio_id"`
	ConductorID string    `json:"conductor_id" db:"conductor_id"`
	Lat         float64   `json:"lat" db:"lat"`
	Lng         float64   `json:"lng" db:"lng"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ValidarCoordenadas проверяет границы широты/долготы.
func ValidarCoordenadas(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
