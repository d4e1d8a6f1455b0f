package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListAvailable(ctx context.Context, companyID, productID string, key *model.VariantKey) ([]model.InventoryLot, error) {
	if !postgres.IsUUID(productID) {
		return nil, nil
	}
	conditions := []string{"company_id = $1", "product_id = $2", "quantity > 0"}
	args := []interface{}{companyID, productID}

	if key == nil {
		conditions = append(conditions, "variant_value IS NULL")
	} else {
		args = append(args, key.Value)
		conditions = append(conditions, fmt.Sprintf("lower(btrim(variant_value)) = lower(btrim($%d))", len(args)))
		if strings.TrimSpace(key.Attribute) != "" {
			args = append(args, key.Attribute)
			conditions = append(conditions, fmt.Sprintf("lower(btrim(variant_attribute)) = lower(btrim($%d))", len(args)))
		}
	}

	query := "SELECT * FROM inventory_lots WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY received_date ASC, created_at ASC, id ASC"
	// Depletion reads and writes back; hold the rows until the caller commits.
	if postgres.InTx(ctx) {
		query += " FOR UPDATE"
	}

	var lots []model.InventoryLot
	if err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &lots, query, args...); err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *PGRepository) ListByProduct(ctx context.Context, companyID, productID string) ([]model.InventoryLot, error) {
	if !postgres.IsUUID(productID) {
		return nil, nil
	}
	query := `
        SELECT * FROM inventory_lots
        WHERE company_id = $1 AND product_id = $2
        ORDER BY received_date ASC, created_at ASC, id ASC
    `
	var lots []model.InventoryLot
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &lots, query, companyID, productID)
	return lots, err
}

func (r *PGRepository) Create(ctx context.Context, lot *model.InventoryLot) error {
	query := `
        INSERT INTO inventory_lots (
            id, product_id, company_id, variant_attribute, variant_value,
            quantity, received_date, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :company_id, :variant_attribute, :variant_value,
            :quantity, :received_date, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, lot)
	return err
}

func (r *PGRepository) UpdateQuantity(ctx context.Context, id string, quantity int, updatedAt time.Time) error {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx,
		`UPDATE inventory_lots SET quantity = $1, updated_at = $2 WHERE id = $3`,
		quantity, updatedAt, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `DELETE FROM inventory_lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) IncrementBase(ctx context.Context, lot *model.InventoryLot) error {
	exec := postgres.Executor(ctx, r.DB)

	var existing model.InventoryLot
	err := sqlx.GetContext(ctx, exec, &existing, `
        UPDATE inventory_lots
        SET quantity = quantity + $1, updated_at = $2
        WHERE id = (
            SELECT id FROM inventory_lots
            WHERE company_id = $3 AND product_id = $4 AND variant_value IS NULL
              AND received_date::date = $5::date
            ORDER BY created_at ASC
            LIMIT 1
            FOR UPDATE
        )
        RETURNING *
    `, lot.Quantity, lot.UpdatedAt, lot.CompanyID, lot.ProductID, lot.ReceivedDate)
	if err == nil {
		*lot = existing
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("increment base lot: %w", err)
	}

	return r.Create(ctx, lot)
}

func expectRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}
