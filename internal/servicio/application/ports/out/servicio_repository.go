package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// ServicioRepository — persistence-коллаборатор для заявок.
// Все мутации строк проходят через use case'ы машины состояний;
// Update условный: применяется только если estado в БД равен ожидаемому,
// так что conductor и estado никогда не расходятся.
type ServicioRepository interface {
	Create(ctx context.Context, s *domain.Servicio) error
	FindByID(ctx context.Context, id string) (*domain.Servicio, error)
	FindByNumero(ctx context.Context, numero string) (*domain.Servicio, error)
	// Update persists the full row only when the stored estado still equals
	// estadoAnterior; returns ErrInvalidTransition otherwise.
	Update(ctx context.Context, s *domain.Servicio, estadoAnterior string) error
	ListPendientes(ctx context.Context) ([]*domain.Servicio, error)
}
