package out_ws

import (
	"context"
	"sync/atomic"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// DeferredNotifier разрывает цикл сборки hub <-> use cases: use cases
// получают notifier до того, как создан WebSocket hub, и Bind связывает
// его позже. До Bind все уведомления — no-op, что совпадает с
// best-effort семантикой канала.
type DeferredNotifier struct {
	target atomic.Pointer[out.ServicioNotifier]
}

func NewDeferredNotifier() *DeferredNotifier {
	return &DeferredNotifier{}
}

// Bind устанавливает реальный notifier. Вызывается один раз при сборке.
func (d *DeferredNotifier) Bind(n out.ServicioNotifier) {
	d.target.Store(&n)
}

func (d *DeferredNotifier) NotifyNuevaSolicitud(ctx context.Context, conductorID string, view domain.PriorityView) bool {
	if n := d.target.Load(); n != nil {
		return (*n).NotifyNuevaSolicitud(ctx, conductorID, view)
	}
	return false
}

func (d *DeferredNotifier) NotifyCambioEstado(ctx context.Context, s *domain.Servicio, cambio *domain.CambioEstado) {
	if n := d.target.Load(); n != nil {
		(*n).NotifyCambioEstado(ctx, s, cambio)
	}
}

func (d *DeferredNotifier) NotifyUbicacion(ctx context.Context, servicioID string, lat, lng float64) {
	if n := d.target.Load(); n != nil {
		(*n).NotifyUbicacion(ctx, servicioID, lat, lng)
	}
}

func (d *DeferredNotifier) NotifyMensajeChat(ctx context.Context, m *domain.MensajeChat) {
	if n := d.target.Load(); n != nil {
		(*n).NotifyMensajeChat(ctx, m)
	}
}
