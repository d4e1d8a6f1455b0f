package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
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

func (r *PGRepository) Create(ctx context.Context, req *model.CheckOutRequest) error {
	query := `
        INSERT INTO check_out_requests (
            id, company_id, status, requested_items, rejection_reason,
            reviewed_at, reviewed_by, notes, created_at, updated_at
        )
        VALUES (
            :id, :company_id, :status, :requested_items, :rejection_reason,
            :reviewed_at, :reviewed_by, :notes, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, req)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.CheckOutRequest, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}
	var req model.CheckOutRequest
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &req, `SELECT * FROM check_out_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CheckOutFilters) ([]model.CheckOutRequest, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM check_out_requests"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM check_out_requests" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	var reqs []model.CheckOutRequest
	if err := r.DB.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, 0, err
	}
	return reqs, count, nil
}

func (r *PGRepository) UpdateReview(ctx context.Context, req *model.CheckOutRequest) error {
	query := `
        UPDATE check_out_requests
        SET status = :status,
            rejection_reason = :rejection_reason,
            reviewed_at = :reviewed_at,
            reviewed_by = :reviewed_by,
            updated_at = :updated_at
        WHERE id = :id AND status = 'pending'
    `
	res, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, req)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrInvalidTransition
	}
	return nil
}

func (r *PGRepository) ListApproved(ctx context.Context, companyID *string, until time.Time) ([]model.CheckOutRequest, error) {
	query := `
        SELECT * FROM check_out_requests
        WHERE status = 'approved' AND reviewed_at <= $1
    `
	args := []interface{}{until}
	if companyID != nil {
		query += ` AND company_id = $2`
		args = append(args, *companyID)
	}
	query += ` ORDER BY reviewed_at ASC, id ASC`

	var reqs []model.CheckOutRequest
	if err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &reqs, query, args...); err != nil {
		return nil, err
	}
	return reqs, nil
}
