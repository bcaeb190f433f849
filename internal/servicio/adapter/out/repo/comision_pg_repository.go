package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ComisionPgRepository — реестр комиссий в PostgreSQL.
// Уникальные индексы по transaction_id и servicio_id держат идемпотентность
// на стороне БД, а не приложения.
type ComisionPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewComisionPgRepository(pool *pgxpool.Pool, log *logger.Logger) *ComisionPgRepository {
	return &ComisionPgRepository{pool: pool, log: log}
}

// CrearIdempotente вставляет комиссию и помечает servicio обработанным в
// одной транзакции. ON CONFLICT DO NOTHING превращает повторный webhook
// в no-op: created=false, ошибки нет.
func (r *ComisionPgRepository) CrearIdempotente(ctx context.Context, c *domain.Comision) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO comisiones (
			id, servicio_id, transaction_id, monto_total, monto_operador, monto_empresa,
			porcentaje_operador, porcentaje_empresa, pago_operador, pago_empresa,
			referencia_pago, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT DO NOTHING
	`,
		c.ID,
		c.ServicioID,
		c.TransactionID,
		c.MontoTotal,
		c.MontoOperador,
		c.MontoEmpresa,
		c.PorcentajeOperador,
		c.PorcentajeEmpresa,
		c.PagoOperador,
		c.PagoEmpresa,
		c.ReferenciaPago,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:     "db_create_comision_failed",
			Message:    err.Error(),
			ServicioID: c.ServicioID,
			Error:      &logger.ErrObj{Msg: err.Error()},
		})
		return false, fmt.Errorf("insert comision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// transaction_id или servicio_id уже обработаны
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE servicios SET transaction_id = $1, updated_at = $2 WHERE id = $3
	`, c.TransactionID, time.Now().UTC(), c.ServicioID); err != nil {
		return false, fmt.Errorf("stamp transaction on servicio: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit comision tx: %w", err)
	}

	return true, nil
}

// FindByServicio возвращает комиссию по servicio, nil если её еще нет
func (r *ComisionPgRepository) FindByServicio(ctx context.Context, servicioID string) (*domain.Comision, error) {
	c := &domain.Comision{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, servicio_id, transaction_id, monto_total, monto_operador, monto_empresa,
		       porcentaje_operador, porcentaje_empresa, pago_operador, pago_empresa,
		       referencia_pago, created_at, updated_at
		FROM comisiones WHERE servicio_id = $1
	`, servicioID).Scan(
		&c.ID,
		&c.ServicioID,
		&c.TransactionID,
		&c.MontoTotal,
		&c.MontoOperador,
		&c.MontoEmpresa,
		&c.PorcentajeOperador,
		&c.PorcentajeEmpresa,
		&c.PagoOperador,
		&c.PagoEmpresa,
		&c.ReferenciaPago,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query comision: %w", err)
	}
	return c, nil
}

// ActualizarPagoOperador переводит выплату оператору в новый статус.
// Запись в статусе pagado больше не трогаем.
func (r *ComisionPgRepository) ActualizarPagoOperador(ctx context.Context, comisionID, estado string, referencia *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comisiones
		SET pago_operador = $1, referencia_pago = COALESCE($2, referencia_pago), updated_at = $3
		WHERE id = $4 AND pago_operador <> $5
	`, estado, referencia, time.Now().UTC(), comisionID, domain.PayoutPagado)
	if err != nil {
		return fmt.Errorf("update pago operador: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: comision %s", domain.ErrDuplicateSettlement, comisionID)
	}
	return nil
}
