package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// ServicioNotifier отправляет live-события по duplex-каналу.
// Все методы best-effort, at-most-once: отсутствие живого соединения —
// не ошибка, а пропущенная доставка.
type ServicioNotifier interface {
	// NotifyNuevaSolicitud отправляет new_request водителю, если он онлайн.
	// Возвращает true при постановке в очередь доставки.
	NotifyNuevaSolicitud(ctx context.Context, conductorID string, view domain.PriorityView) bool

	// NotifyCambioEstado рассылает service_status_change подписчикам сервиса.
	NotifyCambioEstado(ctx context.Context, s *domain.Servicio, cambio *domain.CambioEstado)

	// NotifyUbicacion рассылает driver_location_update подписчикам сервиса.
	NotifyUbicacion(ctx context.Context, servicioID string, lat, lng float64)

	// NotifyMensajeChat рассылает new_chat_message подписчикам сервиса.
	NotifyMensajeChat(ctx context.Context, m *domain.MensajeChat)
}

// PayoutGateway — внешний шлюз выплат водителям.
type PayoutGateway interface {
	// Pagar инициирует выплату по сохраненному токену водителя.
	// Возвращает внешнюю ссылку платежа.
	Pagar(ctx context.Context, payoutToken string, monto float64, referencia string) (string, error)
}
