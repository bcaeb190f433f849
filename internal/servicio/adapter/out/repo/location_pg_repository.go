package repo

import (
	"context"
	"fmt"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationPgRepository пишет точки трека, MensajePgRepository — чат.
// Обе таблицы append-only.
type LocationPgRepository struct {
	pool *pgxpool.Pool
}

func NewLocationPgRepository(pool *pgxpool.Pool) *LocationPgRepository {
	return &LocationPgRepository{pool: pool}
}

func (r *LocationPgRepository) SaveCoordenada(ctx context.Context, c *domain.Coordenada) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO coordenadas (id, servicio_id, conductor_id, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ServicioID, c.ConductorID, c.Lat, c.Lng, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert coordenada: %w", err)
	}
	return nil
}

type MensajePgRepository struct {
	pool *pgxpool.Pool
}

func NewMensajePgRepository(pool *pgxpool.Pool) *MensajePgRepository {
	return &MensajePgRepository{pool: pool}
}

func (r *MensajePgRepository) SaveMensaje(ctx context.Context, m *domain.MensajeChat) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mensajes_chat (id, servicio_id, emisor_id, contenido, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ServicioID, m.EmisorID, m.Contenido, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert mensaje: %w", err)
	}
	return nil
}
