package in

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// TransicionInput — общий вход для всех переходов жизненного цикла.
type TransicionInput struct {
	ServicioID string
	ActorID    string
	ActorRol   string
	// MontoNegociado учитывается только при aceptar заявки с флагом
	// requiere_negociacion.
	MontoNegociado *float64
}

// TransicionUseCase — endpoints машины состояний, 1:1 с событиями перехода.
type TransicionUseCase interface {
	Aceptar(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	MarcarEnSitio(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	MarcarCargando(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	Iniciar(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	Completar(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	Cancelar(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
	ConfirmarPago(ctx context.Context, input TransicionInput) (*domain.Servicio, error)
}
