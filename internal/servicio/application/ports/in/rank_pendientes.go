package in

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// RankPendientesUseCase отдает ранжированный список pendiente-заявок
// для панели водителя. Результат производный, никогда не хранится.
type RankPendientesUseCase interface {
	Execute(ctx context.Context) ([]domain.PriorityView, error)
}
