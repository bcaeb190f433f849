package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// ComisionLedger — журнал комиссий.
type ComisionLedger interface {
	// CrearIdempotente вставляет комиссию и штампует transaction id на
	// заявке одной атомарной операцией. Возвращает created=false, если
	// комиссия для этого transaction id или заявки уже существует —
	// повторная доставка webhook'а поглощается без побочных эффектов.
	CrearIdempotente(ctx context.Context, c *domain.Comision) (created bool, err error)

	FindByServicio(ctx context.Context, servicioID string) (*domain.Comision, error)

	// ActualizarPagoOperador меняет статус выплаты оператору и внешнюю
	// ссылку. Комиссия со статусом pagado неизменяема.
	ActualizarPagoOperador(ctx context.Context, comisionID, estado string, referencia *string) error
}
