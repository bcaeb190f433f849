package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// NotificacionConductor — событие побочного канала (push/SMS воркеры),
// благодаря которому офлайн-водители тоже узнают о новой заявке.
type NotificacionConductor struct {
	ConductorID string         `json:"conductor_id"`
	ServicioID  string         `json:"servicio_id"`
	Numero      string         `json:"numero"`
	Categoria   string         `json:"categoria"`
	Mensaje     string         `json:"mensaje"`
	Datos       map[string]any `json:"datos,omitempty"`
}

// EventPublisher публикует события диспетчеризации во внешний брокер.
// Отказ публикации логируется и глотается: он не должен блокировать
// или откатывать переход состояния.
type EventPublisher interface {
	PublishServicioCreado(ctx context.Context, s *domain.Servicio) error
	PublishCambioEstado(ctx context.Context, cambio *domain.CambioEstado) error
	PublishLiquidacion(ctx context.Context, c *domain.Comision) error
	PublishNotificacionConductor(ctx context.Context, n NotificacionConductor) error
}
