package out_ws

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/ws"
)

// WsServicioNotifier отправляет live-события через WebSocket hub.
// Доставка best-effort: офлайн-подписчик просто пропускает событие,
// повторов нет.
type WsServicioNotifier struct {
	hub *ws.Hub
	log *logger.Logger
}

func NewWsServicioNotifier(hub *ws.Hub, log *logger.Logger) *WsServicioNotifier {
	return &WsServicioNotifier{hub: hub, log: log}
}

// NotifyNuevaSolicitud отправляет new_request водителю, если он онлайн
func (n *WsServicioNotifier) NotifyNuevaSolicitud(ctx context.Context, conductorID string, view domain.PriorityView) bool {
	delivered := n.hub.SendToConductor(conductorID, "new_request", view)
	if delivered {
		n.log.Debug(logger.Entry{
			Action:     "conductor_notified",
			Message:    "new_request",
			ServicioID: view.Servicio.ID,
			Additional: map[string]any{"conductor_id": conductorID},
		})
	}
	return delivered
}

// NotifyCambioEstado рассылает смену состояния подписчикам комнаты сервиса.
// После терминального состояния комната закрывается.
func (n *WsServicioNotifier) NotifyCambioEstado(ctx context.Context, s *domain.Servicio, cambio *domain.CambioEstado) {
	if err := n.hub.SendToServicioJSON(s.ID, "service_status_change", map[string]any{
		"servicioId":     s.ID,
		"numero":         s.Numero,
		"estadoAnterior": cambio.EstadoAnterior,
		"estado":         cambio.EstadoNuevo,
		"conductorId":    s.ConductorID,
		"timestamp":      cambio.Timestamp,
	}); err != nil {
		n.log.Error(logger.Entry{
			Action:     "notify_estado_failed",
			Message:    err.Error(),
			ServicioID: s.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
	}

	if s.EsTerminal() {
		n.hub.Leave(s.ID)
	}
}

// NotifyUbicacion рассылает позицию водителя подписчикам сервиса
func (n *WsServicioNotifier) NotifyUbicacion(ctx context.Context, servicioID string, lat, lng float64) {
	if err := n.hub.SendToServicioJSON(servicioID, "driver_location_update", map[string]any{
		"servicioId": servicioID,
		"lat":        lat,
		"lng":        lng,
	}); err != nil {
		n.log.Debug(logger.Entry{
			Action:     "notify_ubicacion_skipped",
			Message:    err.Error(),
			ServicioID: servicioID,
		})
	}
}

// NotifyMensajeChat рассылает сообщение чата подписчикам сервиса
func (n *WsServicioNotifier) NotifyMensajeChat(ctx context.Context, m *domain.MensajeChat) {
	if err := n.hub.SendToServicioJSON(m.ServicioID, "new_chat_message", map[string]any{
		"servicioId": m.ServicioID,
		"emisorId":   m.EmisorID,
		"contenido":  m.Contenido,
		"timestamp":  m.CreatedAt,
	}); err != nil {
		n.log.Debug(logger.Entry{
			Action:     "notify_mensaje_skipped",
			Message:    err.Error(),
			ServicioID: m.ServicioID,
		})
	}
}
