package out

import (
	"context"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
)

// ConductorRepository — чтение данных водителей для диспетчеризации и выплат.
type ConductorRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Conductor, error)
	// FindDisponiblesPorCategoria возвращает доступных водителей,
	// обслуживающих категорию заявки.
	FindDisponiblesPorCategoria(ctx context.Context, categoria string) ([]*domain.Conductor, error)
	// TieneServicioActivo — есть ли у водителя незавершенная заявка.
	TieneServicioActivo(ctx context.Context, conductorID string) (bool, error)
}
