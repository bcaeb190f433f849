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

const servicioColumns = `
	id, numero, cliente_id, conductor_id, categoria, subtipo, requiere_negociacion,
	origen_lat, origen_lng, origen_direccion, destino_lat, destino_lng, destino_direccion,
	destino_extendido, costo_total, metodo_pago, monto_negociado, estado, transaction_id,
	solicitado_en, aceptado_en, en_sitio_en, cargando_en, iniciado_en, completado_en,
	cancelado_en, pago_confirmado_en, created_at, updated_at`

// ServicioPgRepository — PostgreSQL репозиторий заявок
type ServicioPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewServicioPgRepository(pool *pgxpool.Pool, log *logger.Logger) *ServicioPgRepository {
	return &ServicioPgRepository{pool: pool, log: log}
}

// Create вставляет новую заявку
func (r *ServicioPgRepository) Create(ctx context.Context, s *domain.Servicio) error {
	query := `
		INSERT INTO servicios (` + servicioColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Numero,
		s.ClienteID,
		s.ConductorID,
		s.Categoria,
		s.Subtipo,
		s.RequiereNegociacion,
		s.OrigenLat,
		s.OrigenLng,
		s.OrigenDireccion,
		s.DestinoLat,
		s.DestinoLng,
		s.DestinoDireccion,
		s.DestinoExtendido,
		s.CostoTotal,
		s.MetodoPago,
		s.MontoNegociado,
		s.Estado,
		s.TransactionID,
		s.SolicitadoEn,
		s.AceptadoEn,
		s.EnSitioEn,
		s.CargandoEn,
		s.IniciadoEn,
		s.CompletadoEn,
		s.CanceladoEn,
		s.PagoConfirmadoEn,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:     "db_create_servicio_failed",
			Message:    err.Error(),
			ServicioID: s.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert servicio: %w", err)
	}

	return nil
}

// FindByID возвращает заявку по id
func (r *ServicioPgRepository) FindByID(ctx context.Context, id string) (*domain.Servicio, error) {
	query := `SELECT ` + servicioColumns + ` FROM servicios WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// FindByNumero возвращает заявку по номеру (OrderNumber платежного шлюза)
func (r *ServicioPgRepository) FindByNumero(ctx context.Context, numero string) (*domain.Servicio, error) {
	query := `SELECT ` + servicioColumns + ` FROM servicios WHERE numero = $1`
	return r.scanOne(ctx, query, numero)
}

func (r *ServicioPgRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Servicio, error) {
	s := &domain.Servicio{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.Numero,
		&s.ClienteID,
		&s.ConductorID,
		&s.Categoria,
		&s.Subtipo,
		&s.RequiereNegociacion,
		&s.OrigenLat,
		&s.OrigenLng,
		&s.OrigenDireccion,
		&s.DestinoLat,
		&s.DestinoLng,
		&s.DestinoDireccion,
		&s.DestinoExtendido,
		&s.CostoTotal,
		&s.MetodoPago,
		&s.MontoNegociado,
		&s.Estado,
		&s.TransactionID,
		&s.SolicitadoEn,
		&s.AceptadoEn,
		&s.EnSitioEn,
		&s.CargandoEn,
		&s.IniciadoEn,
		&s.CompletadoEn,
		&s.CanceladoEn,
		&s.PagoConfirmadoEn,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServicioNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_find_servicio_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query servicio: %w", err)
	}
	return s, nil
}

// Update сохраняет строку целиком, но только если estado в БД не ушел
// вперед: optimistic guard, благодаря которому conductor и estado меняются
// одной командой и валидации машины состояний нельзя обойти гонкой.
func (r *ServicioPgRepository) Update(ctx context.Context, s *domain.Servicio, estadoAnterior string) error {
	query := `
		UPDATE servicios SET
			conductor_id = $1, monto_negociado = $2, estado = $3, transaction_id = $4,
			aceptado_en = $5, en_sitio_en = $6, cargando_en = $7, iniciado_en = $8,
			completado_en = $9, cancelado_en = $10, pago_confirmado_en = $11, updated_at = $12
		WHERE id = $13 AND estado = $14
	`

	tag, err := r.pool.Exec(ctx, query,
		s.ConductorID,
		s.MontoNegociado,
		s.Estado,
		s.TransactionID,
		s.AceptadoEn,
		s.EnSitioEn,
		s.CargandoEn,
		s.IniciadoEn,
		s.CompletadoEn,
		s.CanceladoEn,
		s.PagoConfirmadoEn,
		s.UpdatedAt,
		s.ID,
		estadoAnterior,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:     "db_update_servicio_failed",
			Message:    err.Error(),
			ServicioID: s.ID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("update servicio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Строку успел изменить конкурирующий переход
		return fmt.Errorf("%w: servicio %s no longer in estado %s",
			domain.ErrInvalidTransition, s.ID, estadoAnterior)
	}

	return nil
}

// ListPendientes возвращает pendiente-заявки в порядке поступления
func (r *ServicioPgRepository) ListPendientes(ctx context.Context) ([]*domain.Servicio, error) {
	query := `SELECT ` + servicioColumns + ` FROM servicios WHERE estado = $1 ORDER BY solicitado_en`

	rows, err := r.pool.Query(ctx, query, domain.EstadoPendiente)
	if err != nil {
		return nil, fmt.Errorf("query pendientes: %w", err)
	}
	defer rows.Close()

	var result []*domain.Servicio
	for rows.Next() {
		s := &domain.Servicio{}
		if err := rows.Scan(
			&s.ID,
			&s.Numero,
			&s.ClienteID,
			&s.ConductorID,
			&s.Categoria,
			&s.Subtipo,
			&s.RequiereNegociacion,
			&s.OrigenLat,
			&s.OrigenLng,
			&s.OrigenDireccion,
			&s.DestinoLat,
			&s.DestinoLng,
			&s.DestinoDireccion,
			&s.DestinoExtendido,
			&s.CostoTotal,
			&s.MetodoPago,
			&s.MontoNegociado,
			&s.Estado,
			&s.TransactionID,
			&s.SolicitadoEn,
			&s.AceptadoEn,
			&s.EnSitioEn,
			&s.CargandoEn,
			&s.IniciadoEn,
			&s.CompletadoEn,
			&s.CanceladoEn,
			&s.PagoConfirmadoEn,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan servicio: %w", err)
		}
		result = append(result, s)
	}

	return result, rows.Err()
}
