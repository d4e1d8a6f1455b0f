package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const shipmentColumns = "id, company_id, destination, created_by, source_event_id, created_at, updated_at"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Create expects to run inside the caller's transaction so the shipment and
// its items land together with the stock changes.
func (r *PGRepository) Create(ctx context.Context, s *model.Shipment) error {
	exec := postgres.Executor(ctx, r.DB)

	_, err := sqlx.NamedExecContext(ctx, exec, `
        INSERT INTO shipments (id, company_id, destination, created_by, source_event_id, created_at, updated_at)
        VALUES (:id, :company_id, :destination, :created_by, :source_event_id, :created_at, :updated_at)
    `, s)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	for i := range s.Items {
		_, err := sqlx.NamedExecContext(ctx, exec, `
            INSERT INTO shipment_items (id, shipment_id, product_id, variant, quantity, consumed, created_at)
            VALUES (:id, :shipment_id, :product_id, :variant, :quantity, :consumed, :created_at)
        `, &s.Items[i])
		if err != nil {
			return fmt.Errorf("insert shipment item: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Shipment, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}
	return r.findOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

func (r *PGRepository) FindBySourceEvent(ctx context.Context, companyID, eventID string) (*model.Shipment, error) {
	return r.findOne(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE company_id = $1 AND source_event_id = $2`, companyID, eventID)
}

func (r *PGRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Shipment, error) {
	exec := postgres.Executor(ctx, r.DB)

	var s model.Shipment
	if err := sqlx.GetContext(ctx, exec, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := sqlx.SelectContext(ctx, exec, &s.Items,
		`SELECT * FROM shipment_items WHERE shipment_id = $1 ORDER BY created_at ASC, id ASC`, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ShipmentFilters) ([]model.Shipment, int, error) {
	where := ""
	args := []interface{}{}
	if f.CompanyID != "" {
		where = " WHERE company_id = $1"
		args = append(args, f.CompanyID)
	}

	var count int
	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM shipments"+where, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + shipmentColumns + " FROM shipments" + where +
		" ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	var shipments []model.Shipment
	if err := r.DB.SelectContext(ctx, &shipments, query, args...); err != nil {
		return nil, 0, err
	}
	if len(shipments) == 0 {
		return shipments, count, nil
	}

	ids := make([]string, len(shipments))
	byID := make(map[string]int, len(shipments))
	for i, s := range shipments {
		ids[i] = s.ID
		byID[s.ID] = i
	}

	q, qargs, err := sqlx.In(`SELECT * FROM shipment_items WHERE shipment_id IN (?) ORDER BY created_at ASC, id ASC`, ids)
	if err != nil {
		return nil, 0, err
	}
	var items []model.ShipmentItem
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(q), qargs...); err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		i := byID[item.ShipmentID]
		shipments[i].Items = append(shipments[i].Items, item)
	}

	return shipments, count, nil
}
