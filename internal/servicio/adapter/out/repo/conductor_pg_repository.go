package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConductorPgRepository — чтение водителей из PostgreSQL
type ConductorPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewConductorPgRepository(pool *pgxpool.Pool, log *logger.Logger) *ConductorPgRepository {
	return &ConductorPgRepository{pool: pool, log: log}
}

func (r *ConductorPgRepository) FindByID(ctx context.Context, id string) (*domain.Conductor, error) {
	c := &domain.Conductor{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, nombre, categorias, disponible, payout_token, created_at, updated_at
		FROM conductores WHERE id = $1
	`, id).Scan(&c.ID, &c.Nombre, &c.Categorias, &c.Disponible, &c.PayoutToken, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConductorNotFound
		}
		return nil, fmt.Errorf("query conductor: %w", err)
	}
	return c, nil
}

// FindDisponiblesPorCategoria — доступные водители, обслуживающие категорию
func (r *ConductorPgRepository) FindDisponiblesPorCategoria(ctx context.Context, categoria string) ([]*domain.Conductor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, nombre, categorias, disponible, payout_token, created_at, updated_at
		FROM conductores
		WHERE disponible = TRUE AND $1 = ANY (categorias)
	`, categoria)
	if err != nil {
		return nil, fmt.Errorf("query conductores disponibles: %w", err)
	}
	defer rows.Close()

	var result []*domain.Conductor
	for rows.Next() {
		c := &domain.Conductor{}
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Categorias, &c.Disponible, &c.PayoutToken, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conductor: %w", err)
		}
		result = append(result, c)
	}

	return result, rows.Err()
}

// TieneServicioActivo — есть ли у водителя незавершенная заявка
func (r *ConductorPgRepository) TieneServicioActivo(ctx context.Context, conductorID string) (bool, error) {
	var activo bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM servicios
			WHERE conductor_id = $1 AND estado NOT IN ($2, $3)
		)
	`, conductorID, domain.EstadoCompletado, domain.EstadoCancelado).Scan(&activo)
	if err != nil {
		return false, fmt.Errorf("query servicio activo: %w", err)
	}
	return activo, nil
}
