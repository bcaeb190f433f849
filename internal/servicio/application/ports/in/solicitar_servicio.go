package in

import "context"

// SolicitarServicioInput — входные данные создания заявки.
type SolicitarServicioInput struct {
	ClienteID           string
	Categoria           string
	Subtipo             *string
	RequiereNegociacion bool
	OrigenLat           float64
	OrigenLng           float64
	OrigenDireccion     string
	DestinoLat          float64
	DestinoLng          float64
	DestinoDireccion    string
	DestinoExtendido    *string
	MetodoPago          string
}

type SolicitarServicioOutput struct {
	ServicioID          string  `json:"servicio_id"`
	Numero              string  `json:"numero"`
	Estado              string  `json:"estado"`
	CostoEstimado       float64 `json:"costo_estimado"`
	ConductoresAvisados int     `json:"conductores_avisados"`
}

type SolicitarServicioUseCase interface {
	Execute(ctx context.Context, input SolicitarServicioInput) (*SolicitarServicioOutput, error)
}
