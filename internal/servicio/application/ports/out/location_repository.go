package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// LocationRepository сохраняет точки трека водителя.
type LocationRepository interface {
	SaveCoordenada(ctx context.Context, c *domain.Coordenada) error
}

// MensajeRepository сохраняет сообщения чата по сервису.
type MensajeRepository interface {
	SaveMensaje(ctx context.Context, m *domain.MensajeChat) error
}
